package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/stow/internal/filter"
)

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

var _ pflag.Value = (*filterFlag)(nil)

// filterOptions collects the exclusion flags of a command that walks a tree.
type filterOptions struct {
	chain       *filter.Chain
	excludeFrom []string
}

func addFilterFlags(cmd *cobra.Command) *filterOptions {
	fo := &filterOptions{chain: filter.NewChain()}
	f := cmd.Flags()
	f.Var(&filterFlag{chain: fo.chain}, "exclude", "exclude paths matching PATTERN (repeatable)")
	f.Var(&filterFlag{chain: fo.chain, include: true}, "include", "keep paths matching PATTERN despite later excludes (repeatable)")
	f.StringArrayVar(&fo.excludeFrom, "exclude-from", nil, "read filter rules from FILE (repeatable)")
	return fo
}

// matcher returns the combined rules: command line first, then rule files,
// then the config file. It is nil when there are no rules.
func (fo *filterOptions) matcher() (filter.Matcher, error) {
	for _, path := range fo.excludeFrom {
		if err := fo.chain.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := globals.cfg.Defaults.AddExcludes(fo.chain); err != nil {
		return nil, err
	}
	if fo.chain.Empty() {
		return nil, nil
	}
	return fo.chain, nil
}
