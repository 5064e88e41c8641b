package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/wslkit/internal/testutil/mocks"
)

func noEnv(string) string { return "" }

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		goos  string
		files map[string]string
		dirs  []string
		want  Environment
	}{
		{
			name:  "wsl2 from osrelease",
			goos:  "linux",
			files: map[string]string{OSReleasePath: "5.15.153.1-microsoft-standard-WSL2\n"},
			want:  EnvWSL2,
		},
		{
			name:  "wsl2 from run marker",
			goos:  "linux",
			files: map[string]string{OSReleasePath: "5.15.153.1-microsoft-standard"},
			dirs:  []string{"/run/WSL"},
			want:  EnvWSL2,
		},
		{
			name:  "wsl1 from proc version",
			goos:  "linux",
			files: map[string]string{VersionPath: "Linux version 4.4.0-19041-Microsoft (Microsoft@Microsoft.com)"},
			want:  EnvWSL1,
		},
		{
			name:  "native linux",
			goos:  "linux",
			files: map[string]string{OSReleasePath: "6.8.0-45-generic"},
			want:  EnvNative,
		},
		{
			name: "unreadable kernel files",
			goos: "linux",
			want: EnvNative,
		},
		{
			name: "darwin",
			goos: "darwin",
			want: EnvUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := mocks.NewFileSystem()
			for path, content := range tt.files {
				fs.AddFile(path, content)
			}
			for _, dir := range tt.dirs {
				fs.AddDir(dir)
			}

			p := NewDetector(fs).WithGOOS(tt.goos).WithGetenv(noEnv).Detect()
			assert.Equal(t, tt.want, p.Environment())
			assert.Equal(t, tt.want == EnvWSL1 || tt.want == EnvWSL2, p.IsWSL())
			assert.Equal(t, tt.goos, p.OS())
		})
	}
}

func TestDetector_Distro(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(OSReleasePath, "5.15.153.1-microsoft-standard-WSL2")
	fs.AddFile("/etc/os-release", "NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"24.04\"\n")

	p := NewDetector(fs).WithGOOS("linux").WithGetenv(noEnv).Detect()
	assert.Equal(t, "ubuntu", p.Distro())
	assert.Equal(t, "linux/wsl2/ubuntu", p.String())
	assert.Contains(t, p.Kernel(), "WSL2")

	env := func(key string) string {
		if key == "WSL_DISTRO_NAME" {
			return "Ubuntu-24.04"
		}
		return ""
	}
	p = NewDetector(fs).WithGOOS("linux").WithGetenv(env).Detect()
	assert.Equal(t, "Ubuntu-24.04", p.Distro())
}

func TestPlatform_StringNative(t *testing.T) {
	t.Parallel()

	p := NewDetector(mocks.NewFileSystem()).WithGOOS("linux").WithGetenv(noEnv).Detect()
	assert.Equal(t, "linux/native", p.String())
	assert.Empty(t, p.Distro())
}
