package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// invisibleElements hold text that is never rendered as page content.
// noscript is absent: with scripting disabled its children are ordinary
// markup whose anchors and words count.
const invisibleElements = "script, style, template"

// Parser extracts anchors and visible text from HTML content.
//
// Design decision: golang.org/x/net/html builds the tree because it follows
// the HTML5 parsing algorithm and copes with the broken markup common on
// department pages. goquery sits on top of the tree for selector queries so
// the extraction code stays declarative. Scripting is disabled while
// parsing so <noscript> content is parsed as markup, not raw text.
type Parser struct{}

// ParseResult contains the information extracted from one HTML page.
type ParseResult struct {
	// Title is the trimmed text of the first <title> element.
	Title string

	// Hrefs are the non-empty href attributes of <a> elements, in document
	// order, exactly as written in the markup.
	Hrefs []string

	// Text is the visible text of the document: every text node outside
	// script, style and template elements, concatenated without
	// separators.
	Text string
}

// NewParser creates a new HTML parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses HTML content and extracts anchors and text in one pass over
// the tree.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	root, err := html.ParseWithOptions(content, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	result := &ParseResult{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Hrefs: make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			result.Hrefs = append(result.Hrefs, href)
		}
	})

	// Removing detaches the nodes from the tree, so this has to come after
	// every query that may look inside them.
	doc.Find(invisibleElements).Remove()
	result.Text = doc.Text()

	return result, nil
}
