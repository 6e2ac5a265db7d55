package storage

import (
	"path/filepath"
	"testing"

	"github.com/keycustody/registration-backend/interfaces"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreatesGateways(t *testing.T) {
	factory := NewFactory(testLogger())

	testCases := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "memory",
			uri:  "mem://",
			want: "mem",
		},
		{
			name: "file",
			uri:  "file://" + filepath.Join(t.TempDir(), "records"),
			want: "file-records",
		},
		{
			name: "s3",
			uri:  "s3://custody-bucket/records/?region=eu-west-1",
			want: "s3-custody-bucket",
		},
		{
			name: "vault",
			uri:  "vault://vault.example.com:8200/secret/custody?token=root",
			want: "vault-custody",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			location, err := interfaces.NewGatewayLocation(tc.uri)
			require.NoError(t, err)

			gw, err := factory.GatewayFor(location)
			require.NoError(t, err)
			require.Equal(t, tc.want, gw.Name())
		})
	}
}

func TestFactoryRejectsInvalidURIs(t *testing.T) {
	factory := NewFactory(testLogger())

	_, err := interfaces.NewGatewayLocation("redis://localhost:6379")
	require.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	vaultNoPath, err := interfaces.NewGatewayLocation("vault://vault.example.com:8200")
	require.NoError(t, err)
	_, err = factory.GatewayFor(vaultNoPath)
	require.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestFactoryCreateMultiGateway(t *testing.T) {
	factory := NewFactory(testLogger())

	locations := make([]interfaces.GatewayLocation, 0, 2)
	for _, uri := range []string{"mem://", "file://" + filepath.Join(t.TempDir(), "records")} {
		location, err := interfaces.NewGatewayLocation(uri)
		require.NoError(t, err)
		locations = append(locations, location)
	}

	gw, err := factory.CreateMultiGateway(locations)
	require.NoError(t, err)
	require.Equal(t, "multi-2", gw.Name())

	// A single location skips the multi wrapper.
	single, err := factory.CreateMultiGateway(locations[:1])
	require.NoError(t, err)
	require.Equal(t, "mem", single.Name())

	_, err = factory.CreateMultiGateway(nil)
	require.Error(t, err)
}
