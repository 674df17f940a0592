package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Tag separates cache slots of different page kinds built for the same request.
type Tag string

const (
	TagMain     Tag = "main"
	TagTables   Tag = "tables"
	TagGateway  Tag = "gateway"
	TagNotFound Tag = "not_found"
)

// TablesPath is the canonical path of the tables page.
const TablesPath = "/tables"

// TablesParam lists the wanted table ids on the tables page.
const TablesParam = "tables"

var (
	// query parameters that never change the built page
	irrelevantParams = map[string]struct{}{
		"trial":  {},
		"fbclid": {},
	}

	pathAliases = map[string]string{
		"/tabulky": TablesPath,
	}

	// root query keys that select the tables page
	tablesQueryAliases = []string{"tables", "tabulky"}
)

// Identity is the canonical form of a request URL: alias folded path plus the
// sorted query with content-irrelevant parameters removed.
func Identity(u *url.URL) string {
	if u == nil {
		return "/"
	}
	path := canonicalPath(u.EscapedPath())
	query := u.Query()

	if path == "/" {
		for _, alias := range tablesQueryAliases {
			if _, ok := query[alias]; ok {
				path = TablesPath
				break
			}
		}
	}
	if path == TablesPath {
		if ids, ok := query["tabulky"]; ok {
			query.Del("tabulky")
			for _, id := range ids {
				query.Add(TablesParam, id)
			}
		}
	}

	for param := range irrelevantParams {
		query.Del(param)
	}
	for key, values := range query {
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		query[key] = sorted
	}
	if encoded := query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

// IdentityFromString parses raw (a path with optional query) and canonicalizes it.
func IdentityFromString(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return canonicalPath(raw)
	}
	return Identity(u)
}

func canonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	if alias, ok := pathAliases[path]; ok {
		return alias
	}
	return path
}

// SlotKey derives the storage key of a page. It does not include the content
// version: a new version overwrites the same slot.
func SlotKey(tag Tag, identity string) string {
	sum := sha256.Sum256([]byte(string(tag) + "\x00" + identity))
	return hex.EncodeToString(sum[:])
}
