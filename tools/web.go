package tools

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/quillai/quill/errors"
	"golang.org/x/net/html"
)

// ReadWebsiteTool fetches a URL and extracts its readable text content.
type ReadWebsiteTool struct {
	client *http.Client
}

func NewReadWebsiteTool() *ReadWebsiteTool {
	return &ReadWebsiteTool{client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *ReadWebsiteTool) Name() string { return "read_website" }

func (t *ReadWebsiteTool) Description() string {
	return "Reads the content of any url/link. Requires a valid URL. " +
		"This can and should be used to read any relevant documentation."
}

func (t *ReadWebsiteTool) Args() []Argument {
	return []Argument{
		{Name: "url", Description: "url of the website", Type: ArgString, Required: true},
	}
}

// contentTags are the HTML elements whose text is worth feeding to the model.
var contentTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "code": true, "pre": true, "li": true, "th": true, "td": true,
}

func (t *ReadWebsiteTool) Execute(ctx context.Context, actx *Context, args Args) (string, error) {
	rawURL, err := args.String("url")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", errors.New("only http and https URLs are supported, got '%s'", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL '%s'", rawURL)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch '%s'", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errors.New("fetching '%s' returned status %s", rawURL, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse HTML from '%s'", rawURL)
	}
	return extractText(doc), nil
}

// extractText walks the document and collects the text of content-bearing
// elements, skipping script and style subtrees.
func extractText(doc *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node, inContent bool)
	walk = func(n *html.Node, inContent bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
			if contentTags[n.Data] {
				inContent = true
			}
		}
		if n.Type == html.TextNode && inContent {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inContent)
		}
	}
	walk(doc, false)
	return b.String()
}
