package extract

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mhartwig22/campuskg/internal/schema"
)

// dateLayouts covers the formats seen on institutional pages, most to
// least specific.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2 January 2006",
	"January 2, 2006",
	"2006/01/02",
}

// coerceAttributes applies the registry's declared value range to every
// extracted attribute. A value that cannot be coerced degrades to absent;
// only the single attribute is lost, never the record.
func coerceAttributes(reg *schema.Registry, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for name, val := range attrs {
		ai, known := reg.Attribute(name)
		if !known {
			// Unknown attributes survive to resolution; the serializer
			// reports them as violations.
			out[name] = val
			continue
		}
		coerced, ok := coerceValue(ai.Range, val)
		if ok {
			out[name] = coerced
		}
	}
	return out
}

func coerceValue(r schema.AttrRange, val any) (any, bool) {
	switch r {
	case schema.AttrString:
		s, ok := toTrimmedString(val)
		return s, ok && s != ""
	case schema.AttrInteger:
		switch v := val.(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			return n, err == nil
		}
		return nil, false
	case schema.AttrDate:
		s, ok := toTrimmedString(val)
		if !ok || s == "" {
			return nil, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), true
			}
		}
		return nil, false
	case schema.AttrURI:
		s, ok := toTrimmedString(val)
		if !ok || s == "" {
			return nil, false
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, false
		}
		return u.String(), true
	}
	return nil, false
}

func toTrimmedString(val any) (string, bool) {
	s, ok := val.(string)
	return strings.TrimSpace(s), ok
}
