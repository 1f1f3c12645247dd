package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# debbump configuration
# Environment overrides: DEBBUMP_<KEY>, nested keys joined with "__" (DEBBUMP_GIT__BACKEND)

# Source tree layout
marker: .ci                               # Must exist at the repository root
link_name: debian                         # Packaging directory expected by Debian tools
template_dir: .ci/debian9/pkg/debian      # Packaging template the link points to

# Synthesized changelog entry
flavour: tfw                              # Version becomes <upstream>-<flavour><count>-<revision>
summary_prefix: TempestaFW kernel         # Summary bullet: "<prefix> v<upstream>-<count>-g<hash>:"
distribution: UNRELEASED
urgency: medium                           # low | medium | high | emergency | critical
timeout: 0                                # Whole-run timeout in seconds (0 = none)

# Build dependency installation
install:
  skip: false
  command: apt-get -y install
  packages:                               # Needed for debian/control and mk-build-deps
    - kernel-wedge
    - equivs

# Repository access
git:
  backend: cli                            # cli | gogit
  abbrev: 12                              # Hash length for the gogit backend

changelog:
  parser: dpkg                            # dpkg | native

# Packaging makefile
rules:
  path: debian/rules
  control_target: debian/control          # Exits non-zero on success; failures are ignored
  orig_target: orig

# Trailer identity when there are no new commits (falls back to DEBFULLNAME/DEBEMAIL)
maintainer:
  name: ""
  email: ""
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"marker":               ".ci",
		"link_name":            "debian",
		"template_dir":         ".ci/debian9/pkg/debian",
		"flavour":              "tfw",
		"summary_prefix":       "TempestaFW kernel",
		"distribution":         "UNRELEASED",
		"urgency":              "medium",
		"timeout":              0,
		"install.skip":         false,
		"install.command":      "apt-get -y install",
		"install.packages":     []string{"kernel-wedge", "equivs"},
		"git.backend":          "cli",
		"git.abbrev":           12,
		"changelog.parser":     "dpkg",
		"rules.path":           "debian/rules",
		"rules.control_target": "debian/control",
		"rules.orig_target":    "orig",
		"maintainer.name":      "",
		"maintainer.email":     "",
	}
}
