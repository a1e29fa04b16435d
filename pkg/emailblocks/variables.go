package emailblocks

import (
	"regexp"
	"sort"
)

// mergeFieldPattern matches {{ name }} tokens, tolerating inner whitespace
var mergeFieldPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// ScanVariables returns the distinct merge-field names used anywhere in the
// blocks, sorted for stable output.
func ScanVariables(blocks []Block) []string {
	found := make(map[string]struct{})
	for _, block := range blocks {
		scanInto(block.Properties, found)
	}
	return sortedKeys(found)
}

// ScanValue returns the distinct merge-field names found in any string leaf
// of an arbitrary nested value.
func ScanValue(v interface{}) []string {
	found := make(map[string]struct{})
	scanInto(v, found)
	return sortedKeys(found)
}

func scanInto(v interface{}, found map[string]struct{}) {
	switch val := v.(type) {
	case string:
		for _, match := range mergeFieldPattern.FindAllStringSubmatch(val, -1) {
			found[match[1]] = struct{}{}
		}
	case map[string]interface{}:
		for _, item := range val {
			scanInto(item, found)
		}
	case []interface{}:
		for _, item := range val {
			scanInto(item, found)
		}
	case []map[string]interface{}:
		for _, item := range val {
			scanInto(item, found)
		}
	case []string:
		for _, item := range val {
			scanInto(item, found)
		}
	case []Column:
		for _, col := range val {
			scanInto([]string{col.Content, col.Padding, col.Alignment, col.FontSize, col.Color}, found)
		}
	case []SocialNetwork:
		for _, network := range val {
			scanInto([]string{network.Platform, network.URL}, found)
		}
	case []Block:
		for _, block := range val {
			scanInto(block.Properties, found)
		}
	case Block:
		scanInto(val.Properties, found)
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
