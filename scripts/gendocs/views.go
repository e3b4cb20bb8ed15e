package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// generateViewDocs generates the view type reference page from the
// registered variants and their schemas.
func generateViewDocs(outDir string) error {
	log.Printf("Generating view docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("View types", "Grid, graph and map view reference")
	w.GeneratedMarker()

	w.Header(1, "View types")
	w.Paragraph("Every view type previews resources whose datastore is active. " +
		"Configuration values are validated with the type's schema when a view is saved; unknown keys are dropped.")

	headers := []string{"Name", "Title", "Form template"}
	var rows [][]string
	for _, v := range view.Variants {
		rows = append(rows, []string{InlineCode(v.Name()), v.Title(), InlineCode(v.FormTemplate())})
	}
	w.Table(headers, rows)

	for _, v := range view.Variants {
		vw, err := view.New(v)
		if err != nil {
			return err
		}
		info := vw.Info()

		w.Header(2, info.Title)
		w.Paragraph(fmt.Sprintf("Registered as %s and rendered with %s.", InlineCode(info.Name), InlineCode(vw.TemplateName())))

		w.Header(3, "Fields")
		fieldRows := make([][]string, 0, info.Schema.Len())
		for _, f := range info.Schema.Fields() {
			names := make([]string, 0, len(f.Validators))
			for _, val := range f.Validators {
				names = append(names, InlineCode(val.Name))
			}
			fieldRows = append(fieldRows, []string{InlineCode(f.Name), strings.Join(names, ", ")})
		}
		w.Table([]string{"Field", "Validators"}, fieldRows)

		if v == view.Graph {
			w.Header(3, "Graph types")
			var opts []string
			for _, o := range view.GraphTypes() {
				opts = append(opts, InlineCode(o.Value)+" "+o.Label)
			}
			w.BulletList(opts)
		}

		schema, err := view.JSONSchema(v)
		if err != nil {
			return fmt.Errorf("failed to build schema of %s: %w", info.Name, err)
		}
		w.Header(3, "JSON Schema")
		w.CodeBlock("json", string(schema))
	}

	filename := filepath.Join(outDir, "views.md")
	log.Printf("  Generated views.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
