// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ArgsFileInvalidId Id = iota + 1
	ModuleParamsInvalidId
	ContainerEngineNotFoundId
	ConfigSetLoadFailedId
	ToolConfigLoadFailedId
	ContainerRunFailedId
	InspectOutputMalformedId
	LogFileUnwritableId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the operator
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	argsFileInvalidIssue = &Issue{
		id: ArgsFileInvalidId,
		mdMsg: `
# Module arguments could not be read!

The module was started with an arguments file that is missing or is not a
JSON object.

## Things you can try:
- Run the module through Ansible, which writes the arguments file for you.
- When testing by hand, pass a file such as:
~~~json
{"config": "/var/lib/tripleo-config/container-startup-config/step_1", "config_id": "tripleo_step1"}
~~~
~~~
$ paunch ./args.json
~~~`,
	}

	moduleParamsInvalidIssue = &Issue{
		id: ModuleParamsInvalidId,
		mdMsg: `
# Invalid module parameters!

One of the parameters is unknown, has the wrong type, or holds a value
outside the allowed set.

## Allowed values:
- ` + "`action`" + `: apply or cleanup
- ` + "`container_cli`" + `: podman or docker
- ` + "`config_id`" + `: a string or a list of strings (required)

## Things you can try:
- Compare your task with the module documentation:
~~~
$ tripleo-containers paunch --help
~~~`,
		extLinks: []HttpLink{"https://docs.ansible.com/ansible/latest/dev_guide/developing_program_flow_modules.html"},
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

The requested container CLI could not be located in PATH, /sbin, /usr/sbin
or /usr/local/sbin. The module never switches to another engine on its own.

## Things you can try:
- Install podman:
~~~
$ dnf install -y podman
~~~
- Or point the module at a specific binary with the ` + "`executable`" + ` parameter.`,
		extLinks: []HttpLink{"https://podman.io/docs/installation"},
	}

	configSetLoadFailedIssue = &Issue{
		id: ConfigSetLoadFailedId,
		mdMsg: `
# Failed to load container configuration!

The ` + "`config`" + ` path must be a readable YAML or JSON file mapping container
names to definitions, or a directory of hashed-*.json files.

## Things you can try:
- Check the path exists and is readable:
~~~
$ ls -l /var/lib/tripleo-config/container-startup-config/step_1
~~~
- Validate the syntax:
~~~
$ python3 -m json.tool hashed-haproxy.json
~~~`,
	}

	toolConfigLoadFailedIssue = &Issue{
		id: ToolConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The tripleo-containers configuration file could not be parsed or did not
match the expected schema.

## Things you can try:
- Show the effective configuration:
~~~
$ tripleo-containers config show
~~~
- Regenerate a default file:
~~~
$ tripleo-containers config init
~~~`,
	}

	containerRunFailedIssue = &Issue{
		id: ContainerRunFailedId,
		mdMsg: `
# Container command failed!

The container CLI returned a non-zero exit code. The captured stderr is
included in the module result.

## Things you can try:
- Rerun the command echoed in stdout by hand to see the full error.
- Check the engine logs:
~~~
$ journalctl -u podman --since "10 minutes ago"
~~~`,
	}

	inspectOutputMalformedIssue = &Issue{
		id: InspectOutputMalformedId,
		mdMsg: `
# Container inspect output is not valid JSON!

The container CLI printed something other than a JSON array when asked to
inspect containers. This usually means the CLI wrote a warning to stdout.

## Things you can try:
- Run the inspect command by hand:
~~~
$ podman container inspect $(podman container ls -q -a)
~~~
- Set ` + "`use_api: true`" + ` to inspect through the Docker Engine API instead.`,
	}

	logFileUnwritableIssue = &Issue{
		id: LogFileUnwritableId,
		mdMsg: `
# Log file is not writable!

The file named by ` + "`log_file`" + ` could not be opened for appending.

## Things you can try:
- Check the parent directory exists and the module runs with enough privileges.
- Point ` + "`log_file`" + ` somewhere writable such as /tmp/paunch.log.`,
	}

	issues = map[Id]*Issue{
		argsFileInvalidIssue.Id():         argsFileInvalidIssue,
		moduleParamsInvalidIssue.Id():     moduleParamsInvalidIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		configSetLoadFailedIssue.Id():     configSetLoadFailedIssue,
		toolConfigLoadFailedIssue.Id():    toolConfigLoadFailedIssue,
		containerRunFailedIssue.Id():      containerRunFailedIssue,
		inspectOutputMalformedIssue.Id():  inspectOutputMalformedIssue,
		logFileUnwritableIssue.Id():       logFileUnwritableIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
