package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/session"
	"github.com/PolarWolf314/lockbox/internal/tree"
	"github.com/PolarWolf314/lockbox/internal/ui"
)

var listOutput string

type listing struct {
	Container string       `json:"container" yaml:"container"`
	ID        string       `json:"id" yaml:"id"`
	Created   time.Time    `json:"created" yaml:"created"`
	Files     []listedFile `json:"files" yaml:"files"`
}

type listedFile struct {
	Path      string `json:"path" yaml:"path"`
	Content   bool   `json:"has_content" yaml:"has_content"`
	Key       bool   `json:"has_key" yaml:"has_key"`
	Digest    bool   `json:"has_digest" yaml:"has_digest"`
	Signature bool   `json:"has_signature" yaml:"has_signature"`
}

var listCmd = &cobra.Command{
	Use:   "list <container>",
	Short: "Print the files stored in a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Listing %s as %s", args[0], listOutput)
		s, err := session.Open(args[0], Logger, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		content, err := s.ListContent()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch listOutput {
		case "text":
			if content.FileCount() == 0 && content.DirCount() == 0 {
				fmt.Fprintf(out, "%s is empty. Run %s to add files.\n", ui.Path.Sprint(s.Path()), ui.Command.Sprint("lockbox"))
				return nil
			}
			return tree.Render(out, content)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(newListing(s, content))
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(newListing(s, content)); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("%w: unknown output format %q", kerrors.ErrOutOfRange, listOutput)
		}
	},
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "output format: text, json or yaml")
}

func newListing(s *session.Session, content *tree.DirectoryContent) listing {
	l := listing{Container: s.Path(), ID: s.ID(), Created: s.Created(), Files: []listedFile{}}
	for path := range content.Paths() {
		e, _ := content.File(path)
		l.Files = append(l.Files, listedFile{
			Path:      path,
			Content:   e.HasContent,
			Key:       e.HasKey,
			Digest:    e.HasDigest,
			Signature: e.IsSigned,
		})
	}
	return l
}
