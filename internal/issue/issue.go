// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"sort"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	AliasNotFoundId Id = iota + 1
	InvalidAliasDefinitionId
	AliasFileParseErrorId
	AliasKeyNotFoundId
	AliasFileExistsId
	LaunchFailedId
	RemoteUnreachableId
	ContainerEngineNotFoundId
	ConfigLoadFailedId
	SiteInitFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	aliasNotFoundIssue = &Issue{
		id: AliasNotFoundId,
		mdMsg: `
# Alias not found!

No site alias with that name exists in any search location.

## Search locations (first match wins):
1. The file named by $ASH_ALIAS_FILE
2. Directories given on the command line
3. ./drush/sites
4. ` + "`alias_directories`" + ` from your ash.yml
5. ~/.ash/sites

## Things you can try:
- List the aliases ash can see:
~~~
$ ash site:list
~~~

- Check the spelling; aliases look like ` + "`@site`" + ` or ` + "`@site.env`" + `
- Add the directory holding your *.site.yml files:
~~~yaml
# ~/.ash/ash.yml
alias_directories:
  - ~/projects/mysite/drush/sites
~~~`,
		extLinks: []HttpLink{"https://www.drush.org/latest/site-aliases/"},
	}

	invalidAliasDefinitionIssue = &Issue{
		id: InvalidAliasDefinitionId,
		mdMsg: `
# Invalid alias definition!

The alias was found, but it cannot be used to reach a site.

## Common causes:
- Neither ` + "`root`" + ` nor ` + "`host`" + ` is set
- ` + "`transport`" + ` is not one of local, ssh or docker
- A docker alias has no ` + "`docker.service`" + `

## Example of a valid alias file:
~~~yaml
# mysite.site.yml
live:
  host: web1.example.com
  user: deploy
  root: /var/www/mysite
  uri: https://mysite.example.com
dev:
  root: /home/me/mysite
  uri: http://mysite.localhost
~~~`,
	}

	aliasFileParseErrorIssue = &Issue{
		id: AliasFileParseErrorId,
		mdMsg: `
# Failed to parse an alias file!

One of your *.site.yml, *.site.toml or *.site.cue files could not be read.
ash skipped it and kept going; aliases defined in that file are unavailable.

## Things you can try:
- Check the path and position in the warning above
- Validate YAML files with any YAML linter
- Validate CUE files against the alias schema:
~~~
$ ash site:schema > alias.cue
$ cue vet alias.cue mysite.site.cue
~~~`,
	}

	aliasKeyNotFoundIssue = &Issue{
		id: AliasKeyNotFoundId,
		mdMsg: `
# Key not found in alias!

The alias exists but does not define the requested key.

## Things you can try:
- Show the whole alias record:
~~~
$ ash site:get @site.env
~~~

- Nested keys use dots, e.g. ` + "`docker.service`" + ``,
	}

	aliasFileExistsIssue = &Issue{
		id: AliasFileExistsId,
		mdMsg: `
# Alias file already exists!

ash will not overwrite an existing alias file unless asked to.

## Things you can try:
- Pick another name with ` + "`--name`" + `
- Overwrite the file:
~~~
$ ash site:add --force
~~~`,
	}

	launchFailedIssue = &Issue{
		id: LaunchFailedId,
		mdMsg: `
# Failed to launch the command!

The command could not be started. This is different from the command
running and exiting with an error.

## Common causes:
- The program is not installed or not in PATH
- The site root directory does not exist
- The ssh or docker client binary is missing

## Things you can try:
- Run with --verbose to see the exact program and arguments
- Check that the alias ` + "`root`" + ` points to an existing directory`,
	}

	remoteUnreachableIssue = &Issue{
		id: RemoteUnreachableId,
		mdMsg: `
# Remote host unreachable!

ash could not open an ssh connection to the alias host.

## Things you can try:
- Connect by hand to see the ssh error:
~~~
$ ssh -v user@host
~~~

- Check the alias ` + "`host`" + `, ` + "`user`" + ` and ` + "`ssh.port`" + ` values
- Make sure your key is loaded in ssh-agent:
~~~
$ ssh-add -l
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

The alias uses the docker transport, but neither Docker nor Podman is available.

## Things you can try:
- Install Docker: https://docs.docker.com/get-docker/
- Or install Podman: https://podman.io/getting-started/installation
- Pick the engine explicitly:
~~~yaml
# ~/.ash/ash.yml
container:
  engine: podman
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

ash could not read one of its configuration files.

## Configuration sources (later wins):
1. ~/.ash/ash.yml
2. ./ash.yml
3. The file named by $ASH_CONFIG
4. ASH_* environment variables

## Things you can try:
- Show the effective configuration:
~~~
$ ash config show
~~~

- Check the YAML syntax of the file named above`,
	}

	siteInitFailedIssue = &Issue{
		id: SiteInitFailedId,
		mdMsg: `
# Failed to initialize the site!

ash could not prepare the site root from its git repository.

## Things you can try:
- Set ` + "`git_remote`" + ` in the alias if the root does not exist yet
- Check that ` + "`git_reference`" + ` names a branch, tag or commit
- Check that your git credentials work for the remote:
~~~
$ git ls-remote <git_remote>
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- Writing an alias file into a protected directory
- The site root is owned by another user
- The container engine requires elevated permissions

## Things you can try:
- Check file/directory permissions
- For containers, ensure you're in the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~`,
	}

	issues = map[Id]*Issue{
		aliasNotFoundIssue.Id():           aliasNotFoundIssue,
		invalidAliasDefinitionIssue.Id():  invalidAliasDefinitionIssue,
		aliasFileParseErrorIssue.Id():     aliasFileParseErrorIssue,
		aliasKeyNotFoundIssue.Id():        aliasKeyNotFoundIssue,
		aliasFileExistsIssue.Id():         aliasFileExistsIssue,
		launchFailedIssue.Id():            launchFailedIssue,
		remoteUnreachableIssue.Id():       remoteUnreachableIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		siteInitFailedIssue.Id():          siteInitFailedIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].id < out[b].id })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
