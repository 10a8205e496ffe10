// Package urlutil 提供抓取入口使用的 URL 校验与文件名推导。
package urlutil

import (
	"errors"
	"net/url"
	"strings"
)

// ContentExtension 是入库知识文件的扩展名，抓取结果统一按 markdown 文本处理。
const ContentExtension = ".md"

// Validate 判断字符串是否为带 host 的 http/https URL。解析失败返回 false。
func Validate(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

// Filename 由 URL 的 host 推导知识文件名，例如 https://News.Example:8443/a -> news.example.md。
func Filename(raw string) (string, error) {
	if !Validate(raw) {
		return "", errors.New("invalid url")
	}
	u, _ := url.Parse(raw)
	return strings.ToLower(u.Hostname()) + ContentExtension, nil
}
