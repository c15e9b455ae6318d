package detect

import (
	"sort"

	"github.com/armash/log-analyzer/internal/types"
)

// Recurring groups ERROR records by exact message text and returns, per
// message, the sorted distinct calendar days it occurred on, keeping only
// messages seen on more than one day. Matching is byte-exact: no trimming,
// casefolding or templating of variable substrings, so "id=1" and "id=2"
// messages stay distinct. Volume on a single day never qualifies.
func Recurring(records []types.Record) map[string][]string {
	days := make(map[string]map[string]struct{})
	for _, r := range records {
		if r.Level != types.LevelError {
			continue
		}
		set, ok := days[r.Message]
		if !ok {
			set = make(map[string]struct{})
			days[r.Message] = set
		}
		set[r.Day()] = struct{}{}
	}

	recurring := make(map[string][]string)
	for msg, set := range days {
		if len(set) < 2 {
			continue
		}
		list := make([]string, 0, len(set))
		for day := range set {
			list = append(list, day)
		}
		sort.Strings(list)
		recurring[msg] = list
	}
	return recurring
}
