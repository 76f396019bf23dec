package service

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	slugStripPattern = regexp.MustCompile(`[:,;]`)
	slugSpacePattern = regexp.MustCompile(`\s+`)

	contentPolicy = newContentPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("data-name").OnElements("img")
	return p
}

// CreateSlug 根据标题生成slug：去掉冒号、逗号、分号，空白替换为连字符
func CreateSlug(title string) string {
	slug := slugStripPattern.ReplaceAllString(strings.TrimSpace(title), "")
	return slugSpacePattern.ReplaceAllString(slug, "-")
}

// contentImage 正文中引用的已上传图片
type contentImage struct {
	Name    string
	Capture *string
}

// processContent 解析文章HTML：收集带data-name的图片，去掉空段落并做XSS清洗
func processContent(html string) (string, []contentImage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, invalidArgument("解析文章内容失败: %v", err)
	}

	var images []contentImage
	seen := make(map[string]bool)
	doc.Find("img[data-name]").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.AttrOr("data-name", ""))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true

		img := contentImage{Name: name}
		if alt := strings.TrimSpace(sel.AttrOr("alt", "")); alt != "" {
			img.Capture = &alt
		}
		images = append(images, img)
	})

	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() == 0 && strings.TrimSpace(sel.Text()) == "" {
			sel.Remove()
		}
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", nil, err
	}
	return contentPolicy.Sanitize(strings.TrimSpace(body)), images, nil
}
