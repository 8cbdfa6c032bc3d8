package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

const exampleCacheLine = `i-10ca9425 {"private_ip_address":"127.0.0.1",` +
	`"profile_name":"testing",` +
	`"public_ip_address":"10.0.0.1",` +
	`"region":"us-west-1",` +
	`"subnet_id":"subnet-b5bc10ec",` +
	`"vpc_id":"vpc-bbe848de"}`

func exampleInstance() domain.Instance {
	return domain.Instance{
		ID:             "i-10ca9425",
		ProfileName:    "testing",
		Region:         "us-west-1",
		PrivateAddress: "127.0.0.1",
		PublicAddress:  "10.0.0.1",
		VpcID:          "vpc-bbe848de",
		SubnetID:       "subnet-b5bc10ec",
	}
}

func TestFormatCacheLine(t *testing.T) {
	line, err := FormatCacheLine(exampleInstance())
	require.NoError(t, err)
	assert.Equal(t, exampleCacheLine, line)
}

func TestParseCacheLine(t *testing.T) {
	inst, err := ParseCacheLine(exampleCacheLine)
	require.NoError(t, err)
	assert.Equal(t, exampleInstance(), inst)
	assert.False(t, inst.IsClassic())
}

func TestCacheLine_OptionalFieldsStayAbsent(t *testing.T) {
	classic := domain.Instance{
		ID:             "i-0000beef",
		ProfileName:    "legacy",
		Region:         "us-east-1",
		PrivateAddress: "10.1.2.3",
	}

	line, err := FormatCacheLine(classic)
	require.NoError(t, err)
	assert.Equal(t, `i-0000beef {"private_ip_address":"10.1.2.3","profile_name":"legacy","region":"us-east-1"}`, line)

	back, err := ParseCacheLine(line)
	require.NoError(t, err)
	assert.Equal(t, classic, back)
	assert.True(t, back.IsClassic())
}

func TestParseCacheLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"i-1",
		"i-1 {not json",
		" {}",
		`i-1 {"profile_name":"p","region":"us-west-1"}`,
		`i-1 {"private_ip_address":"10.0.0.1","instance_type":"t3.micro"}`,
		`i-1 {"private_ip_address":"10.0.0.1"} {}`,
	} {
		_, err := ParseCacheLine(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestCacheLine_NonASCIIIsEscaped(t *testing.T) {
	inst := domain.Instance{
		ID:             "i-1",
		ProfileName:    "prod\u00e9",
		Region:         "us-west-1",
		PrivateAddress: "10.0.0.1",
		SubnetID:       "subnet-\U0001f600",
	}

	line, err := FormatCacheLine(inst)
	require.NoError(t, err)
	assert.Equal(t, `i-1 {"private_ip_address":"10.0.0.1","profile_name":"prod\u00e9",`+
		`"region":"us-west-1","subnet_id":"subnet-\ud83d\ude00"}`, line)

	back, err := ParseCacheLine(line)
	require.NoError(t, err)
	assert.Equal(t, inst, back)
}

func writeCache(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestInstanceCache_LookupExampleLine(t *testing.T) {
	path := writeCache(t, "# boosh host cache", "", exampleCacheLine)
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	inst, found, err := cache.Lookup("i-10ca9425")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exampleInstance(), inst)
	assert.False(t, inst.IsClassic())
}

func TestInstanceCache_FirstMatchWins(t *testing.T) {
	newer := exampleInstance()
	newer.PrivateAddress = "10.9.9.9"
	newerLine, err := FormatCacheLine(newer)
	require.NoError(t, err)

	path := writeCache(t, exampleCacheLine, newerLine)
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	inst, found, err := cache.Lookup("i-10ca9425")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "127.0.0.1", inst.PrivateAddress)
}

func TestInstanceCache_IDMustMatchExactly(t *testing.T) {
	// A longer id sharing the prefix and a malformed unrelated line are both ignored.
	path := writeCache(t, "i-10ca94250 {garbage", exampleCacheLine)
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	inst, found, err := cache.Lookup("i-10ca9425")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "i-10ca9425", inst.ID)

	_, found, err = cache.Lookup("i-10ca")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInstanceCache_MalformedMatchingLine(t *testing.T) {
	path := writeCache(t, "i-10ca9425 {not json")
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	_, _, err := cache.Lookup("i-10ca9425")
	require.Error(t, err)
	assert.Equal(t, domain.ExitCacheError, domain.ExitCode(err))
}

func TestInstanceCache_MatchingLineWithoutPrivateAddress(t *testing.T) {
	path := writeCache(t, `i-1 {"profile_name":"p","region":"us-west-1"}`)
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	_, found, err := cache.Lookup("i-1")
	require.Error(t, err)
	assert.False(t, found)
	var cacheErr *domain.CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "parse", cacheErr.Op)
	assert.Equal(t, domain.ExitCacheError, domain.ExitCode(err))
}

func TestInstanceCache_MissingFileIsMiss(t *testing.T) {
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), filepath.Join(t.TempDir(), "absent", "hosts"))

	_, found, err := cache.Lookup("i-10ca9425")
	require.NoError(t, err)
	assert.False(t, found)

	list, err := cache.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInstanceCache_AppendCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "boosh", "hosts")
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	require.NoError(t, cache.Append(exampleInstance()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, exampleCacheLine+"\n", string(data))

	inst, found, err := cache.Lookup("i-10ca9425")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exampleInstance(), inst)
}

func TestInstanceCache_AppendKeepsExistingLines(t *testing.T) {
	path := writeCache(t, "# header")
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	require.NoError(t, cache.Append(exampleInstance()))
	require.NoError(t, cache.Append(exampleInstance()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# header\n"+exampleCacheLine+"\n"+exampleCacheLine+"\n", string(data))
}

func TestInstanceCache_AppendFailure(t *testing.T) {
	// The parent of the cache path is a regular file, so the directory cannot be created.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), filepath.Join(blocker, "hosts"))

	err := cache.Append(exampleInstance())
	require.Error(t, err)
	var cacheErr *domain.CacheError
	assert.ErrorAs(t, err, &cacheErr)
}

func TestInstanceCache_List(t *testing.T) {
	other := domain.Instance{ID: "i-2", ProfileName: "prod", Region: "eu-west-1", PrivateAddress: "10.0.0.2"}
	otherLine, err := FormatCacheLine(other)
	require.NoError(t, err)
	dup := exampleInstance()
	dup.Region = "us-east-1"
	dupLine, err := FormatCacheLine(dup)
	require.NoError(t, err)

	path := writeCache(t, exampleCacheLine, "bogus", otherLine, dupLine)
	cache := NewInstanceCache(zaptest.NewLogger(t).Sugar(), path)

	list, err := cache.List()
	require.NoError(t, err)
	assert.Equal(t, []domain.Instance{exampleInstance(), other}, list)
}
