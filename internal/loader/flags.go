package loader

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/metadata"

	"qirvm/internal/qir"
)

// moduleFlags walks !llvm.module.flags and records the qir_* entries plus
// the dynamic management flags. Each flag node is !{behavior, !"name",
// value}; unrecognized names and malformed nodes are skipped.
func moduleFlags(mod *ir.Module) qir.ModuleFlags {
	flags := make(qir.ModuleFlags)
	named, ok := mod.NamedMetadataDefs["llvm.module.flags"]
	if !ok {
		return flags
	}
	for _, node := range named.Nodes {
		tuple, ok := node.(*metadata.Tuple)
		if !ok || len(tuple.Fields) < 3 {
			continue
		}
		name, ok := fieldString(tuple.Fields[1])
		if !ok || !recognizedFlag(name) {
			continue
		}
		if n, ok := fieldInt(tuple.Fields[2]); ok {
			flags[name] = qir.FlagValue{Int: n, IsInt: true}
			continue
		}
		if s, ok := fieldString(tuple.Fields[2]); ok {
			flags[name] = qir.FlagValue{Str: s}
		}
	}
	return flags
}

func recognizedFlag(name string) bool {
	switch name {
	case qir.FlagDynamicQubitManagement, qir.FlagDynamicResultManagement:
		return true
	}
	return strings.HasPrefix(name, "qir_")
}

func fieldString(f metadata.Field) (string, bool) {
	if s, ok := f.(*metadata.String); ok {
		return s.Value, true
	}
	return "", false
}

func fieldInt(f metadata.Field) (int64, bool) {
	switch v := f.(type) {
	case *constant.Int:
		if v.X.IsInt64() {
			return v.X.Int64(), true
		}
	case *metadata.Value:
		if c, ok := v.Value.(*constant.Int); ok && c.X.IsInt64() {
			return c.X.Int64(), true
		}
	}
	return 0, false
}
