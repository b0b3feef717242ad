// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package linreg

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// loadFlagConfig sets flags from the top-level keys of a TOML file,
// e.g. `threads = 8`. Flags given explicitly on the command line
// take precedence over the file.
func loadFlagConfig(flags *flag.FlagSet, fnm string) error {
	var values map[string]interface{}
	if _, err := toml.DecodeFile(fnm, &values); err != nil {
		return fmt.Errorf("%s: %w", fnm, err)
	}
	explicit := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "config" || flags.Lookup(k) == nil {
			return fmt.Errorf("%s: unknown setting %q", fnm, k)
		}
		if explicit[k] {
			continue
		}
		var s string
		switch v := values[k].(type) {
		case []interface{}:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = fmt.Sprint(item)
			}
			s = strings.Join(items, ",")
		default:
			s = fmt.Sprint(v)
		}
		if err := flags.Set(k, s); err != nil {
			return fmt.Errorf("%s: %s: %w", fnm, k, err)
		}
	}
	return nil
}
