package assets

import (
	"bytes"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/wolfeidau/carebundle/internal/bundle"
)

var scriptTypes = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

// PageData is passed to the html template.
type PageData struct {
	Title   string
	Scripts []string
	Styles  []string
}

// writeHTML renders the page template with the entry scripts and styles into
// the output directory as index.html.
func (p *Pipeline) writeHTML(opts bundle.HTMLOptions) error {
	d := p.config.Description

	tmpl, err := template.ParseFiles(opts.Template)
	if err != nil {
		return err
	}

	entries := entryOrder(d.Entries)
	data := PageData{
		Title:  opts.Title,
		Styles: p.styles(entries),
	}
	for _, entry := range entries {
		_, script, err := p.loadScripts(entry)
		if err != nil {
			return err
		}
		data.Scripts = append(data.Scripts, script)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}

	page := buf.Bytes()
	if settings, ok := opts.Minify.Get(); ok {
		page, err = minifyHTML(page, settings, d.Output.PublicPath)
		if err != nil {
			return err
		}
	}

	return os.WriteFile(filepath.Join(d.Output.Path, "index.html"), page, 0644)
}

func minifyHTML(page []byte, settings bundle.HTMLMinify, publicPath string) ([]byte, error) {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepComments:        !settings.RemoveComments,
		KeepWhitespace:      !settings.CollapseWhitespace,
		KeepDefaultAttrVals: !settings.RemoveRedundantAttributes,
		KeepDocumentTags:    true,
		KeepEndTags:         settings.KeepClosingSlash,
		KeepQuotes:          !settings.RemoveEmptyAttributes,
	})
	if settings.MinifyCSS {
		m.AddFunc("text/css", css.Minify)
	}
	if settings.MinifyJS {
		m.AddFuncRegexp(scriptTypes, js.Minify)
	}
	if settings.MinifyURLs {
		base, err := url.Parse(publicPath)
		if err != nil {
			return nil, err
		}
		m.URL = base
	}

	return m.Bytes("text/html", page)
}
