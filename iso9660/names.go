package iso9660

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NameConfig is the subset of BuildOptions the name canonicaliser needs.
type NameConfig struct {
	Level CompatibilityLevel
	Flags CompatibilityFlags
}

// nameParts is a candidate mapped name decomposed into the pieces conflict
// resolution needs to vary independently: the base (name) portion stays
// negotiable, while a file's extension and version suffix are fixed once
// derived from the host name.
type nameParts struct {
	isDir   bool
	base    string
	ext     string
	version string // files only
}

// full renders the complete mapped name for a candidate base, keeping this
// entry's extension/version suffix (if any) fixed.
func (p nameParts) full(base string) string {
	if p.isDir {
		return base
	}
	s := base
	if p.ext != "" {
		s += "." + p.ext
	}
	return s + ";" + p.version
}

// canonicalizeVolume walks v's directory tree depth-first, deriving and
// disambiguating MappedName/MappedIdentifier for every entry per §4.3.
func canonicalizeVolume(v *Volume, opts *BuildOptions) error {
	if v.Root == nil {
		return newModelInconsistent(v.VolumeIdentifier, "volume has no root directory")
	}
	cfg := NameConfig{Level: opts.Level, Flags: opts.Flags}
	v.Root.MappedName = ""
	v.Root.MappedIdentifier = []byte{0x00}
	return canonicalizeDirectory(v.Root, 0, 0, cfg)
}

func entryLabel(dir *Directory, name string) string {
	parent := dir.Name
	if parent == "" {
		parent = "/"
	}
	return parent + "/" + name
}

// canonicalizeDirectory derives mapped names for dir's non-associated
// children, resolves collisions, binds associated children to their
// primary sibling, checks the depth and path-length invariants, and
// recurses into directory children. ppl is the parent path length already
// accumulated (bytes, including separators) before this directory's own
// component.
func canonicalizeDirectory(dir *Directory, level int, ppl int, cfg NameConfig) error {
	hostIndex := make(map[string]Entry, len(dir.Children))
	used := make(map[string]bool, len(dir.Children))

	for _, child := range dir.Children {
		base := child.base()
		if base.AssociatedFile {
			continue
		}
		label := entryLabel(dir, base.Name)

		var parts nameParts
		var err error
		if _, ok := child.(*Directory); ok {
			parts, err = deriveDirName(label, base.Name, cfg)
		} else {
			parts, err = deriveFileName(label, base.Name, cfg)
		}
		if err != nil {
			return err
		}

		maxBase := len(parts.base)
		if maxBase == 0 {
			maxBase = 1
		}
		final, err := resolveConflict(label, parts, used, cfg.Flags, maxBase, base.Name)
		if err != nil {
			return err
		}
		base.MappedName = final
		base.MappedIdentifier = []byte(final)
		used[final] = true
		hostIndex[base.Name] = child
	}

	for _, child := range dir.Children {
		base := child.base()
		if !base.AssociatedFile {
			continue
		}
		sibling, ok := hostIndex[base.Name]
		if !ok {
			return newModelInconsistent(entryLabel(dir, base.Name),
				"associated file has no matching non-associated sibling named %q", base.Name)
		}
		sb := sibling.base()
		base.MappedName = sb.MappedName
		base.MappedIdentifier = sb.MappedIdentifier
	}

	for _, child := range dir.Children {
		base := child.base()
		if ppl+len(base.MappedName) > maxPathLength {
			return newInvalidArgument(entryLabel(dir, base.Name), "full path exceeds %d bytes", maxPathLength)
		}
	}

	if cfg.Flags.has(LimitDirectories) && level == maxDirectoryDepth {
		for _, child := range dir.Children {
			if _, ok := child.(*Directory); ok {
				return newDepthExceeded(entryLabel(dir, child.base().Name))
			}
		}
	}

	for _, child := range dir.Children {
		if cd, ok := child.(*Directory); ok {
			nextPPL := ppl + len(cd.MappedIdentifier) + 1
			if err := canonicalizeDirectory(cd, level+1, nextPPL, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// deriveDirName derives a directory's mapped identifier: uppercasing (Level
// 1 + UpperCaseFileNames), character filtering, a ban on '.' (unless
// stripped), and an 8 (Level 1) or 31 (Level 2/3) byte length cap.
func deriveDirName(entity, host string, cfg NameConfig) (nameParts, error) {
	s := host
	if cfg.Level == Level1 && cfg.Flags.has(UpperCaseFileNames) {
		s = strings.ToUpper(s)
	}

	if strings.ContainsRune(s, '.') {
		if !cfg.Flags.has(StripIllegalDots) {
			return nameParts{}, newInvalidArgument(entity, "directory name %q contains an illegal '.'", host)
		}
		s = strings.ReplaceAll(s, ".", "")
	}

	var out strings.Builder
	for _, r := range s {
		mapped, ok := filterRune(r, cfg)
		if !ok {
			return nameParts{}, newInvalidArgument(entity, "character %q is not permitted in directory name %q", r, host)
		}
		out.WriteRune(mapped)
	}
	name := out.String()

	maxLen := 31
	if cfg.Level == Level1 {
		maxLen = 8
	}
	if len(name) > maxLen {
		if !cfg.Flags.has(TruncateFileNames) {
			return nameParts{}, newInvalidArgument(entity, "directory name %q exceeds the %d-byte limit", host, maxLen)
		}
		name = name[:maxLen]
	}
	if len(name) == 0 {
		return nameParts{}, newInvalidArgument(entity, "directory name %q is empty after filtering", host)
	}
	return nameParts{isDir: true, base: name}, nil
}

// deriveFileName derives a file's mapped name: uppercasing, character
// filtering, dot/semicolon separator validation, 8.3 (Level 1) or 30-byte
// (Level 2/3) length capping, and a default ";1" version when the host
// name carried none.
func deriveFileName(entity, host string, cfg NameConfig) (nameParts, error) {
	s := host
	if cfg.Level == Level1 && cfg.Flags.has(UpperCaseFileNames) {
		s = strings.ToUpper(s)
	}

	var filtered strings.Builder
	for _, r := range s {
		if r == '.' || r == ';' {
			filtered.WriteRune(r)
			continue
		}
		mapped, ok := filterRune(r, cfg)
		if !ok {
			return nameParts{}, newInvalidArgument(entity, "character %q is not permitted in %q", r, host)
		}
		filtered.WriteRune(mapped)
	}

	namePart, version, err := applySeparatorRules(entity, filtered.String(), host, cfg.Flags)
	if err != nil {
		return nameParts{}, err
	}
	if version == "" {
		version = "1"
	}

	base, ext := splitExtension(namePart)

	if cfg.Level == Level1 {
		base, ext, err = capLevel1(entity, base, ext, host, cfg.Flags)
	} else {
		base, ext, err = capTotalLength(entity, base, ext, host, cfg.Flags, 30)
	}
	if err != nil {
		return nameParts{}, err
	}
	if base == "" && ext == "" {
		return nameParts{}, newInvalidArgument(entity, "file name %q is empty after filtering", host)
	}
	return nameParts{isDir: false, base: base, ext: ext, version: version}, nil
}

// filterRune applies the Level 1 / Level 2-3 character acceptance test,
// including the Level 1 + UpperCaseFileNames allowance for a character
// whose uppercase form is a d-character.
func filterRune(r rune, cfg NameConfig) (rune, bool) {
	if cfg.Level == Level1 {
		if isAllowed(DCharacters, r) {
			return r, true
		}
		if cfg.Flags.has(UpperCaseFileNames) && isDCharacterUpper(r) {
			return toUpperRune(r), true
		}
		return r, false
	}
	if r > 127 {
		return r, false
	}
	return r, true
}

// applySeparatorRules validates and normalises the dot/semicolon structure
// of a filtered name, returning the name portion (at most one '.') and any
// explicit version suffix.
func applySeparatorRules(entity, raw, original string, flags CompatibilityFlags) (name string, version string, err error) {
	namePart := raw
	if semiIdx := strings.IndexByte(raw, ';'); semiIdx >= 0 {
		namePart = raw[:semiIdx]
		verPart := raw[semiIdx+1:]
		if strings.ContainsRune(verPart, ';') {
			return "", "", newInvalidArgument(entity, "%q has more than one ';' version separator", original)
		}
		if !strings.Contains(namePart, ".") {
			return "", "", newInvalidArgument(entity, "%q has a ';' version separator with no preceding '.'", original)
		}
		n, convErr := strconv.Atoi(verPart)
		if convErr != nil || n < 1 || n > 32767 {
			return "", "", newInvalidArgument(entity, "%q has an invalid version suffix %q", original, verPart)
		}
		version = verPart
	}

	if dotCount := strings.Count(namePart, "."); dotCount > 1 {
		if !flags.has(StripIllegalDots) {
			return "", "", newInvalidArgument(entity, "%q contains more than one '.'", original)
		}
		last := strings.LastIndex(namePart, ".")
		namePart = strings.ReplaceAll(namePart[:last], ".", "") + namePart[last:]
	}
	return namePart, version, nil
}

func splitExtension(s string) (base, ext string) {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}

// capLevel1 enforces the Level 1 8.3 cap, truncating each portion
// independently when TruncateFileNames is set.
func capLevel1(entity, base, ext, host string, flags CompatibilityFlags) (string, string, error) {
	if len(base) > 8 {
		if !flags.has(TruncateFileNames) {
			return "", "", newInvalidArgument(entity, "%q name portion exceeds 8 characters at compatibility level 1", host)
		}
		base = base[:8]
	}
	if len(ext) > 3 {
		if !flags.has(TruncateFileNames) {
			return "", "", newInvalidArgument(entity, "%q extension exceeds 3 characters at compatibility level 1", host)
		}
		ext = ext[:3]
	}
	return base, ext, nil
}

// capTotalLength enforces the Level 2/3 name+extension byte cap, shrinking
// the base portion first and preserving the extension in full when it
// fits, per §4.3.1.d.
func capTotalLength(entity, base, ext, host string, flags CompatibilityFlags, maxTotal int) (string, string, error) {
	dotLen := 0
	if ext != "" {
		dotLen = 1
	}
	total := len(base) + dotLen + len(ext)
	if total <= maxTotal {
		return base, ext, nil
	}
	if !flags.has(TruncateFileNames) {
		return "", "", newInvalidArgument(entity, "%q exceeds the %d-byte name+extension limit", host, maxTotal)
	}
	avail := maxTotal - dotLen - len(ext)
	if avail < 0 {
		// Even the extension alone does not fit: truncate it too.
		return "", ext[:maxTotal], nil
	}
	if avail < len(base) {
		base = base[:avail]
	}
	return base, ext, nil
}

// resolveConflict returns parts' mapped name, renamed via tilde or hash
// aliasing if it collides with an already-mapped sibling in used.
func resolveConflict(entity string, parts nameParts, used map[string]bool, flags CompatibilityFlags, maxBaseLen int, original string) (string, error) {
	candidate := parts.full(parts.base)
	if !used[candidate] {
		return candidate, nil
	}
	if !flags.has(ResolveNameConflicts) {
		return "", newConflictUnresolvable(entity, "name %q collides with an existing sibling", candidate)
	}

	truncLen := maxBaseLen - 2
	if truncLen < 0 {
		truncLen = 0
	}
	trimmed := parts.base
	if len(trimmed) > truncLen {
		trimmed = trimmed[:truncLen]
	}
	for n := 1; n <= 4; n++ {
		cand := parts.full(fmt.Sprintf("%s~%d", trimmed, n))
		if !used[cand] {
			return cand, nil
		}
	}

	hexLen := maxBaseLen - 6
	if hexLen < 0 {
		hexLen = 0
	}
	hashed := parts.base
	if len(hashed) > hexLen {
		hashed = hashed[:hexLen]
	}
	hashed = fmt.Sprintf("%s%04x", hashed, nameHash16(original))
	for n := 1; n <= 9; n++ {
		cand := parts.full(fmt.Sprintf("%s~%d", hashed, n))
		if !used[cand] {
			return cand, nil
		}
	}
	return "", newConflictUnresolvable(entity, "exhausted tilde and hash aliases for %q", original)
}

// nameHash16 is a 16-bit hash of the original host name, used only to seed
// the hash-form fallback alias; any well-distributed hash suffices, so this
// takes the first two bytes of a blake2b-256 digest as a big-endian uint16.
func nameHash16(s string) uint16 {
	sum := blake2b.Sum256([]byte(s))
	return uint16(sum[0])<<8 | uint16(sum[1])
}
