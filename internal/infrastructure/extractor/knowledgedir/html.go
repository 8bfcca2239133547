package knowledgedir

import (
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// loadHTML renders an HTML page as markdown text: h1-h3 become header
// lines, block elements become paragraphs, script and style are dropped.
func loadHTML(path string) (domain.KnowledgePage, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.KnowledgePage{}, err
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return domain.KnowledgePage{}, err
	}

	var b strings.Builder
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer":
				return
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
				return
			case "h1":
				b.WriteString("\n# " + strings.TrimSpace(nodeText(n)) + "\n")
				return
			case "h2":
				b.WriteString("\n## " + strings.TrimSpace(nodeText(n)) + "\n")
				return
			case "h3", "h4":
				b.WriteString("\n### " + strings.TrimSpace(nodeText(n)) + "\n")
				return
			case "p", "li", "td", "div", "br":
				defer b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				b.WriteString(text + " ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if title == "" {
		title = titleFromFilename(path)
	}
	return domain.KnowledgePage{
		Title:    title,
		Markdown: collapseBlankLines(b.String()),
	}, nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
