// Package exclusions loads baseline files of glob patterns, answers whether
// a path is excluded, and tracks which entries were actually used.
//
// A baseline line has the form
//
//	pattern[|suffix[,suffix...]][# comment]
//
// where the optional suffixes narrow the entry to particular scopes. Lines
// starting with '#' are comments and "import:<path>" pulls in another
// baseline, resolved against the importing file's directory when relative.
//
// Typical use:
//
//	eng, err := exclusions.New("/repo/eng/baseline.txt")
//	if err != nil {
//	    return err
//	}
//	if eng.IsExcludedFor("src/tool/out.dll", "sdk") {
//	    // skip validation
//	}
//	updated, err := eng.GenerateBaseline("", nil)
package exclusions
