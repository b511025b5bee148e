package utils

import (
	"fmt"
	"net/url"
	"strings"
)

func UrlQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%20", "+")
}

func Str(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
