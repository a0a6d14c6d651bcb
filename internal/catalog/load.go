package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile seeds st from a JSON file holding either one test or an array of tests.
func LoadFile(ctx context.Context, st Store, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var tests []Test
	if err := json.Unmarshal(raw, &tests); err != nil {
		var one Test
		if err1 := json.Unmarshal(raw, &one); err1 != nil {
			return 0, fmt.Errorf("parse %s: %w", path, err)
		}
		tests = []Test{one}
	}
	for _, t := range tests {
		if err := st.PutTest(ctx, t); err != nil {
			return 0, fmt.Errorf("seed test %q: %w", t.ID, err)
		}
	}
	return len(tests), nil
}
