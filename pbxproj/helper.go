package pbxproj

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/fipers/fipers-integrate/pbxparser"
)

func toCommentKey(key string) string {
	return pbxparser.CommentKey(key)
}

func nonCommentsFilter(key string, _ interface{}) bool {
	return !pbxparser.IsCommentKey(key)
}

func onlyCommentsFilter(key string, _ interface{}) bool {
	return pbxparser.IsCommentKey(key)
}

func isObject(v interface{}) bool {
	_, ok := v.(pbxparser.Object)
	return ok
}

func toObject(v interface{}) pbxparser.Object {
	return v.(pbxparser.Object)
}

func isArray(v interface{}) bool {
	_, ok := v.([]interface{})
	return ok
}

func toArray(v interface{}) []interface{} {
	return v.([]interface{})
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

func isInt(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return true
	}
	return false
}

func toIntString(v interface{}) string {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10)
	}
	return ""
}

var unquotedRegex = regexp.MustCompile(`(^")|("$)`)

func unquoted(text string) string {
	if text == "" {
		return text
	}
	return unquotedRegex.ReplaceAllString(text, "")
}

// bareValueRegex matches values the manifest format leaves unquoted;
// anything else (spaces, parens, hyphens, angle brackets) needs quotes.
var bareValueRegex = regexp.MustCompile(`^[A-Za-z0-9$./_]+$`)

func quoted(text string) string {
	if text == "" {
		return `""`
	}
	if strings.HasPrefix(text, `"`) || bareValueRegex.MatchString(text) {
		return text
	}
	return `"` + text + `"`
}

// toValueList normalizes a settings value to list form; a scalar such as
// LIBRARY_SEARCH_PATHS = "$(inherited)" becomes a one-element list.
func toValueList(val interface{}) []interface{} {
	switch v := val.(type) {
	case []interface{}:
		return v
	case nil:
		return nil
	default:
		return []interface{}{v}
	}
}

// containsListValue compares string elements with quoting stripped, so
// "$(inherited)" and $(inherited) count as the same token.
func containsListValue(list []interface{}, val string) bool {
	want := unquoted(val)
	for _, v := range list {
		if s, ok := v.(string); ok && unquoted(s) == want {
			return true
		}
	}
	return false
}
