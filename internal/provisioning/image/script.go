package image

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/samber/lo"

	"github.com/imamik/spotbuild/internal/platform/gitref"
)

// passwordVar holds the registry password on the remote side.
const passwordVar = "REGISTRY_PASSWORD"

// headRef names the remote's default branch; git clone rejects it as --branch.
const headRef = "HEAD"

// shortCommitLen is the length of the commit tag added to pinned builds.
const shortCommitLen = 12

// ScriptOptions describes what the remote build does.
type ScriptOptions struct {
	// User is added to the docker group.
	User string

	RepoURL string
	// Ref is cloned with --branch when no Commit is set. HEAD clones the
	// default branch and a full commit hash is checked out after cloning.
	Ref string
	// Commit, when set, is checked out detached and added as a tag.
	Commit   string
	CloneDir string

	// Image is the repository name without tag.
	Image     string
	ExtraTags []string

	// RegistryServer is passed to docker login; empty means Docker Hub.
	RegistryServer string
	Username       string
	// Password is delivered on stdin, never rendered.
	Password string

	Dockerfile string
	Context    string
	BuildArgs  map[string]string
}

// Script is an ordered command sequence joined with "&&", so the first
// failing command stops the rest.
type Script struct {
	commands []string
	images   []string
	secret   string
}

// NewScript renders the build commands for opts.
func NewScript(opts ScriptOptions) *Script {
	q := shellescape.Quote

	tags := []string{"latest"}
	if opts.Commit != "" {
		tags = append(tags, shortCommit(opts.Commit))
	}
	tags = lo.Uniq(append(tags, opts.ExtraTags...))
	images := lo.Map(tags, func(tag string, _ int) string {
		return opts.Image + ":" + tag
	})

	var cmds []string
	if opts.Password != "" {
		cmds = append(cmds, "IFS= read -r "+passwordVar)
	}

	cmds = append(cmds,
		"sudo apt-get update -y",
		"sudo apt-get install -y docker.io git",
		"sudo usermod -aG docker "+q(opts.User),
	)

	checkout := opts.Commit
	if checkout == "" && gitref.IsCommitHash(opts.Ref) {
		checkout = opts.Ref
	}

	clone := "git clone"
	if checkout == "" && opts.Ref != "" && opts.Ref != headRef {
		clone += " --branch " + q(opts.Ref)
	}
	cmds = append(cmds,
		clone+" "+q(opts.RepoURL)+" "+q(opts.CloneDir),
		"cd "+q(opts.CloneDir),
	)
	if checkout != "" {
		cmds = append(cmds, "git checkout --detach "+q(checkout))
	}

	if opts.Password != "" {
		login := "sudo docker login"
		if opts.RegistryServer != "" {
			login += " " + q(opts.RegistryServer)
		}
		login += " --username " + q(opts.Username) + " --password-stdin"
		cmds = append(cmds, fmt.Sprintf(`printf '%%s' "$%s" | %s`, passwordVar, login))
	}

	build := []string{"sudo docker build", "-f " + q(opts.Dockerfile)}
	argKeys := lo.Keys(opts.BuildArgs)
	slices.Sort(argKeys)
	for _, k := range argKeys {
		build = append(build, "--build-arg "+q(k+"="+opts.BuildArgs[k]))
	}
	build = append(build, lo.Map(images, func(ref string, _ int) string {
		return "-t " + q(ref)
	})...)
	build = append(build, q(opts.Context))
	cmds = append(cmds, strings.Join(build, " "))

	cmds = append(cmds, lo.Map(images, func(ref string, _ int) string {
		return "sudo docker push " + q(ref)
	})...)

	return &Script{commands: cmds, images: images, secret: opts.Password}
}

// Commands returns the individual commands in execution order.
func (s *Script) Commands() []string {
	return slices.Clone(s.commands)
}

// Render returns the single shell command line sent to the host.
func (s *Script) Render() string {
	return strings.Join(s.commands, " && ")
}

// Stdin returns the input the script expects, or nil when it reads none.
func (s *Script) Stdin() io.Reader {
	if s.secret == "" {
		return nil
	}
	return strings.NewReader(s.secret + "\n")
}

// Images returns every image reference the script pushes.
func (s *Script) Images() []string {
	return slices.Clone(s.images)
}

// Secrets returns the values that must not appear in logs.
func (s *Script) Secrets() []string {
	if s.secret == "" {
		return nil
	}
	return []string{s.secret}
}

// String implements fmt.Stringer without exposing secrets.
func (s *Script) String() string {
	return s.Render()
}

func shortCommit(commit string) string {
	if len(commit) > shortCommitLen {
		return commit[:shortCommitLen]
	}
	return commit
}
