// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a known user-facing problem with Markdown guidance.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	VersionCheckFailedId
	CatalogUnavailableId
	CatalogSignatureInvalidId
	DownloadFailedId
	IntegrityMismatchId
	PermissionDeniedId
	InstallFailedId
	ManagedInstallId
	NotAReleaseBuildId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the named glamour style ("auto", "dark",
// "light", "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# The configuration could not be loaded

## Things you can try
- Print the effective configuration and the file it comes from:
~~~
$ ytdl config show
$ ytdl config path
~~~
- Unset ` + "`YTDL_*`" + ` environment variables you did not mean to set.`,
	}

	versionCheckFailedIssue = &Issue{
		id: VersionCheckFailedId,
		mdMsg: `
# The update server could not be reached

ytdl asks the update server for the latest version before anything else.

## Things you can try
- Check your network connection and any proxy settings.
- Try again later; the server may be temporarily unavailable.`,
		docLinks: []HttpLink{"https://yt-dl.org/update/LATEST_VERSION"},
	}

	catalogUnavailableIssue = &Issue{
		id: CatalogUnavailableId,
		mdMsg: `
# The versions information could not be obtained

The latest version is known but its download details could not be read.

## Things you can try
- Try again later.
- If you changed ` + "`update.base_url`" + `, make sure the server also publishes ` + "`versions.json`" + `.`,
	}

	catalogSignatureInvalidIssue = &Issue{
		id: CatalogSignatureInvalidId,
		mdMsg: `
# The versions file failed signature verification

Nothing was downloaded. The versions file may have been tampered with in
transit, or the configured update server is not the official one.

## Things you can try
- Remove a custom ` + "`update.base_url`" + ` from your configuration.
- Update manually from the official download page.`,
		extLinks: []HttpLink{"https://yt-dl.org/download"},
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# The new version could not be downloaded

## Things you can try
- Check your network connection and try again.
- Raise ` + "`update.timeout`" + ` on slow connections.`,
	}

	integrityMismatchIssue = &Issue{
		id: IntegrityMismatchId,
		mdMsg: `
# The downloaded file is not the one that was published

Its SHA-256 hash does not match the signed versions file, so it was discarded
and your current version was left untouched.

## Things you can try
- Try again later; a mirror may be serving a stale file.`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# No write permission on the ytdl executable

## Things you can try
- Re-run the update as the user that owns the executable, for example:
~~~
$ sudo ytdl upgrade
~~~
- Or reinstall ytdl into a directory you own.`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# The new version could not be put in place

## Things you can try
- Make sure no other ytdl process is running and try again.
- Check that the disk is not full.`,
	}

	managedInstallIssue = &Issue{
		id: ManagedInstallId,
		mdMsg: `
# ytdl is managed by a package manager

Updating in place would conflict with the package manager's records.

## Things you can try
- Homebrew:
~~~
$ brew upgrade ytdl
~~~
- go install:
~~~
$ go install github.com/ytdl-org/ytdl@latest
~~~`,
	}

	notAReleaseBuildIssue = &Issue{
		id: NotAReleaseBuildId,
		mdMsg: `
# This build has no release version

Development builds cannot be compared with published releases.

## Things you can try
- Install a release build, or build with
  ` + "`-ldflags \"-X github.com/ytdl-org/ytdl/cmd/ytdl.Version=2021.12.17\"`" + `.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		versionCheckFailedIssue.Id():      versionCheckFailedIssue,
		catalogUnavailableIssue.Id():      catalogUnavailableIssue,
		catalogSignatureInvalidIssue.Id(): catalogSignatureInvalidIssue,
		downloadFailedIssue.Id():          downloadFailedIssue,
		integrityMismatchIssue.Id():       integrityMismatchIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
		installFailedIssue.Id():           installFailedIssue,
		managedInstallIssue.Id():          managedInstallIssue,
		notAReleaseBuildIssue.Id():        notAReleaseBuildIssue,
	}
)

// Values returns every known issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id) - int(b.id) })
}

func Get(id Id) *Issue {
	return issues[id]
}
