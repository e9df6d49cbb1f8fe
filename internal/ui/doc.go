// Package ui holds the semantic text formatters used by the lockbox menus.
//
// Formatters color their text with fatih/color. When NO_COLOR is set or the
// output is not a terminal they fall back to plain decorations, so a
// highlighted name still stands out in logs and pipes:
//
//	fmt.Println("Opened", ui.Path.Sprint(path))
//	fmt.Println("Signed by", ui.Highlight.Sprint(name))
package ui
