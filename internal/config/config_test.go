package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mail:
  dnsta_alias: dnsta@example.edu
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.NotEmpty(t, cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Mail.Port)
	assert.Equal(t, "dnsta@example.edu", cfg.Mail.From, "from defaults to the alias")
	assert.False(t, cfg.Route53.Enabled)
	assert.False(t, cfg.LDAP.Enabled)
}

func TestLoadRequiresDnsTaAlias(t *testing.T) {
	_, err := Load(writeConfig(t, `
server:
  port: 9000
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dnsta_alias")
}

func TestLoadRoute53(t *testing.T) {
	_, err := Load(writeConfig(t, `
mail:
  dnsta_alias: dnsta@example.edu
route53:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hosted_zone_id")

	cfg, err := Load(writeConfig(t, `
mail:
  dnsta_alias: dnsta@example.edu
route53:
  enabled: true
  hosted_zone_id: Z0123456789
`))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Route53.Region)
	assert.Equal(t, int64(300), cfg.Route53.TTL)
}

func TestLoadLDAPValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
mail:
  dnsta_alias: dnsta@example.edu
ldap:
  enabled: true
`))
	require.Error(t, err)

	cfg, err := Load(writeConfig(t, `
mail:
  dnsta_alias: dnsta@example.edu
ldap:
  enabled: true
  url: ldaps://ldap.example.edu
  bind_dn: cn=svc,dc=example,dc=edu
  bind_password: secret
  base_dn: dc=example,dc=edu
  group_mapping:
    dnsta: cn=dns-ta,ou=groups,dc=example,dc=edu
`))
	require.NoError(t, err)
	assert.Equal(t, "(uid=%s)", cfg.LDAP.UserFilter)
	assert.Equal(t, "uid", cfg.LDAP.UsernameAttr)
	assert.Equal(t, "cn", cfg.LDAP.NameAttr)
	assert.Equal(t, "mail", cfg.LDAP.EmailAttr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
