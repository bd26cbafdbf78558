package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/config"
)

func TestCommandPolicy_Deny(t *testing.T) {
	p, err := NewCommandPolicy(config.DefaultDenyCommands, nil)
	require.NoError(t, err)

	allowed := []string{
		"ls -la",
		"npm install && npm run build",
		"go test ./... | tee out.txt",
		"echo rm",
		"git commit -m 'rm old files'",
		"find . -name '*.go' -exec gofmt -l '{}' ';'",
		"env NODE_ENV=production node server.js",
		"timeout 30 npm test",
		`bash -c "npm test"`,
		"bash -ec 'go vet ./...'",
		"sh -o pipefail -c 'go test ./... | tee out.txt'",
		"find . -name '*.orig' -print",
	}
	for _, cmd := range allowed {
		t.Run("allows "+cmd, func(t *testing.T) {
			assert.NoError(t, p.Check(cmd))
		})
	}

	refused := []string{
		"rm -rf /",
		"sudo ls",
		"ls && rm x",
		"cat a | sudo tee b",
		"(cd src; rm x)",
		"echo $(rm -rf build)",
		"/bin/rm x",
		`\rm x`,
		`"rm" x`,
		"env FOO=1 rm x",
		"nohup nice -n 5 rm x",
		"timeout 5 rm x",
		"xargs -n 1 rm < list",
		"bash -c 'rm -rf /'",
		"sh -c \"sudo reboot\"",
		"eval rm x",
		"find . -exec rm '{}' ';'",
		"mkfs.ext4 /dev/sda1",
		"$CMD x",
		`bash -c "$SCRIPT"`,
		`echo "unterminated`,
		"echo 'rm -f victim' | sh",
		"sh <<'EOF'\nrm -f victim\nEOF",
		"bash <<< 'rm -f victim'",
		"sh script.sh",
		"bash -",
		"busybox rm -f victim",
		"toybox rm victim",
		"unlink victim",
		"find . -name victim -delete",
	}
	for _, cmd := range refused {
		t.Run("refuses "+cmd, func(t *testing.T) {
			err := p.Check(cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCommandRefused)
		})
	}
}

func TestCommandPolicy_Allow(t *testing.T) {
	p, err := NewCommandPolicy([]string{"rm"}, []string{"npm", "go", "rm"})
	require.NoError(t, err)

	assert.NoError(t, p.Check("npm install"))
	assert.NoError(t, p.Check("go build ./..."))
	assert.NoError(t, p.Check("rm tmp.txt"), "allow list wins over deny list")

	err = p.Check("npm test && curl example.com")
	require.ErrorIs(t, err, ErrCommandRefused)
	assert.Contains(t, err.Error(), "curl is not in the allow list")
}

func TestCommandPolicy_ShellWithoutScript(t *testing.T) {
	p, err := NewCommandPolicy(config.DefaultDenyCommands, nil)
	require.NoError(t, err)

	err = p.Check("cat cmds.txt | bash")
	require.ErrorIs(t, err, ErrCommandRefused)
	assert.Contains(t, err.Error(), "bash may only run an inline -c script")
}

func TestCommandPolicy_FindDelete(t *testing.T) {
	p, err := NewCommandPolicy([]string{"sudo"}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Check("find . -name '*.tmp' -delete"), "allowed when rm is")

	p, err = NewCommandPolicy([]string{"rm"}, nil)
	require.NoError(t, err)
	err = p.Check("find . -name '*.tmp' -delete")
	require.ErrorIs(t, err, ErrCommandRefused)
	assert.Contains(t, err.Error(), "find -delete is not allowed")
}

func TestCommandPolicy_Messages(t *testing.T) {
	p, err := NewCommandPolicy([]string{"sudo"}, nil)
	require.NoError(t, err)

	err = p.Check("sudo ls")
	require.Error(t, err)
	assert.Equal(t, "command refused by policy: sudo is not allowed", err.Error())
}

func TestCommandPolicy_Nesting(t *testing.T) {
	p, err := NewCommandPolicy([]string{"rm"}, nil)
	require.NoError(t, err)

	assert.NoError(t, p.Check(strings.Repeat("eval ", 3)+"ls"))

	err = p.Check(strings.Repeat("eval ", maxPolicyDepth+2) + "ls")
	require.ErrorIs(t, err, ErrCommandRefused)
	assert.Contains(t, err.Error(), "nested too deeply")
}

func TestNewCommandPolicy_InvalidPattern(t *testing.T) {
	_, err := NewCommandPolicy([]string{"["}, nil)
	assert.Error(t, err)

	_, err = NewCommandPolicy(nil, []string{"{a,b"})
	assert.Error(t, err)
}
