// Package bump synchronizes the Debian packaging of a kernel tree with its
// git history: it moves the package version to the latest release tag and
// records the commits since that tag as a new changelog entry.
//
// A run has nine steps:
//
//  1. check that the work dir is the repository root
//  2. link debian to the packaging template
//  3. install build dependencies
//  4. read the tag descriptor, package version and source name
//  5. list commits since the tag, oldest first
//  6. write the new entry followed by the old changelog to changelog-new
//  7. rename changelog-new over changelog
//  8. regenerate debian/control (non-zero exit tolerated)
//  9. run the orig target
//
// Plan runs steps 4 and 5 only and never mutates the tree.
package bump
