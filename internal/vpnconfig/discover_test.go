package vpnconfig

import (
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/netcloak/internal/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(f), 0o755))
		require.NoError(t, afero.WriteFile(fs, f, []byte("client\n"), 0o644))
	}
	return fs
}

func TestDiscover_CurrentDir(t *testing.T) {
	t.Chdir(t.TempDir())
	fs := afero.NewOsFs()
	for _, f := range []string{"work.ovpn", "home.ovpn", "notes.txt", "archive.ovpn.bak"} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("client\n"), 0o644))
	}

	refs, err := NewDiscoverer(fs, ".", ".ovpn").Discover()

	require.NoError(t, err)
	assert.Equal(t, []Ref{"home.ovpn", "work.ovpn"}, refs)
}

func TestDiscover_OtherDir(t *testing.T) {
	fs := memFs(t, "/etc/openvpn/b.ovpn", "/etc/openvpn/a.OVPN", "/etc/openvpn/client.conf")

	refs, err := NewDiscoverer(fs, "/etc/openvpn", ".ovpn").Discover()

	require.NoError(t, err)
	assert.Equal(t, []Ref{"/etc/openvpn/a.OVPN", "/etc/openvpn/b.ovpn"}, refs)
	assert.Equal(t, "a.OVPN", refs[0].Name())
}

func TestDiscover_SkipsDirectories(t *testing.T) {
	fs := memFs(t, "/cfg/real.ovpn")
	require.NoError(t, fs.MkdirAll("/cfg/fake.ovpn", 0o755))

	refs, err := NewDiscoverer(fs, "/cfg", ".ovpn").Discover()

	require.NoError(t, err)
	assert.Equal(t, []Ref{"/cfg/real.ovpn"}, refs)
}

func TestDiscover_NoneFound(t *testing.T) {
	fs := memFs(t, "/cfg/readme.md")

	refs, err := NewDiscoverer(fs, "/cfg", ".ovpn").Discover()

	require.Error(t, err)
	assert.Nil(t, refs)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "No OpenVPN (.ovpn) files found")
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := NewDiscoverer(afero.NewMemMapFs(), "/nope", ".ovpn").Discover()

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestNewDiscoverer_EmptyDirMeansCwd(t *testing.T) {
	d := NewDiscoverer(afero.NewMemMapFs(), "", ".ovpn")
	assert.Equal(t, ".", d.Dir())
}

func TestRef(t *testing.T) {
	r := Ref("configs/us-east.ovpn")
	assert.Equal(t, "us-east.ovpn", r.Name())
	assert.Equal(t, "configs/us-east.ovpn", r.String())
}
