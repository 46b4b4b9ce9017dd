package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteintel/siteintel/pkg/jsonutil"
)

func find(t *testing.T, res Result, name string) Subdomain {
	t.Helper()
	for _, s := range res.Classified {
		if s.Subdomain == name {
			return s
		}
	}
	t.Fatalf("%s not classified", name)
	return Subdomain{}
}

func names(list []Subdomain) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Subdomain
	}
	return out
}

func TestClassify_APIAdminWeb(t *testing.T) {
	res := Classify(
		[]string{"api.example.com", "admin.example.com", "web.example.com"},
		map[string]string{"api.example.com": "crtsh"},
		"example.com",
	)

	api := find(t, res, "api.example.com")
	assert.Equal(t, "API & Compute", api.Category)
	assert.Equal(t, Medium, api.Interest)
	assert.Equal(t, "crtsh", api.Source)

	admin := find(t, res, "admin.example.com")
	assert.Equal(t, "Internal Tools", admin.Category)
	assert.Equal(t, Low, admin.Interest)
	assert.Equal(t, UnknownSource, admin.Source)

	assert.Equal(t, []string{"api.example.com", "web.example.com", "admin.example.com"}, names(res.Classified))
}

func TestClassify_TierOrdering(t *testing.T) {
	input := []string{
		"zz-dev.example.com",
		"mail.example.com",
		"shop.example.com",
		"random.example.com",
		"login.example.com",
		"cdn.example.com",
		"a-staging.example.com",
	}
	res := Classify(input, nil, "example.com")

	require.Len(t, res.Classified, len(input))
	for i := 1; i < len(res.Classified); i++ {
		prev, cur := res.Classified[i-1], res.Classified[i]
		if prev.Interest == cur.Interest {
			assert.Less(t, prev.Subdomain, cur.Subdomain)
		} else {
			assert.Less(t, prev.Interest.Rank(), cur.Interest.Rank())
		}
	}
	assert.Equal(t, []string{
		"login.example.com", "shop.example.com",
		"cdn.example.com", "mail.example.com",
		"a-staging.example.com", "random.example.com", "zz-dev.example.com",
	}, names(res.Classified))
	assert.Equal(t, TierStats{High: 2, Medium: 2, Low: 3}, res.Stats)
}

func TestClassify_OrderIndependent(t *testing.T) {
	a := Classify([]string{"b.example.com", "api.example.com", "a.example.com"}, nil, "example.com")
	b := Classify([]string{"a.example.com", "b.example.com", "api.example.com"}, nil, "example.com")
	assert.Equal(t, a.Classified, b.Classified)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"sso", "Authentication & Identity"},
		{"my-accounts", "Authentication & Identity"},
		{"checkout", "E-commerce & Payments"},
		{"graphql.internal", "API & Compute"},
		{"webmail", "Email & Communication"},
		{"www", "Marketing & Web"},
		{"uat_2", "Development & Staging"},
		{"jenkins", "Internal Tools"},
		{"vpn", "Infrastructure"},
		{"API", "API & Compute"},
		{"random", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.prefix).Name, "prefix %q", tt.prefix)
	}
	assert.Equal(t, Low, Default.Tier)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"eu", "api", "v2", "prod"}, Labels("eu.api-v2_prod"))
	assert.Equal(t, []string{"a", "b"}, Labels("A  B"))
	assert.Empty(t, Labels(""))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "api", Prefix("api.example.com", "example.com"))
	assert.Equal(t, "eu.api", Prefix("EU.API.example.com", "example.com"))
	assert.Equal(t, "", Prefix("example.com", "example.com"))
	assert.Equal(t, "api.other.org", Prefix("api.other.org", "example.com"))
	assert.Equal(t, "notexample.com", Prefix("notexample.com", "example.com"))
}

func TestClusters_ThreeNodes(t *testing.T) {
	res := Classify([]string{"node-1.example.com", "node-2.example.com", "node-3.example.com"}, nil, "example.com")

	require.Len(t, res.Clusters, 1)
	c := res.Clusters[0]
	assert.Equal(t, "node-*.example.com", c.Prefix)
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, "Infrastructure", c.Category)
	assert.Equal(t, []string{"node-1.example.com", "node-2.example.com", "node-3.example.com"}, c.Members)
}

func TestClusters_TwoIsNotACluster(t *testing.T) {
	res := Classify([]string{"node-1.example.com", "node-2.example.com"}, nil, "example.com")
	assert.Empty(t, res.Clusters)
	assert.NotNil(t, res.Clusters)
}

func TestClusters_Rules(t *testing.T) {
	input := []string{
		"web10.example.com",
		"api-1.example.com",
		"web2.example.com",
		"api-22.example.com",
		"web.example.com",
		"api-333.example.com",
		"web3.example.com",
		"api.example.com",
	}
	res := Classify(input, nil, "example.com")

	require.Len(t, res.Clusters, 2)
	assert.Equal(t, "web*.example.com", res.Clusters[0].Prefix)
	assert.Equal(t, []string{"web10.example.com", "web2.example.com", "web3.example.com"}, res.Clusters[0].Members)
	assert.Equal(t, "api-*.example.com", res.Clusters[1].Prefix)
	assert.Equal(t, 3, res.Clusters[1].Count)
}

func TestClusters_SplitByCategory(t *testing.T) {
	// Same stem shape, but "db" and "shop" land in different categories.
	input := []string{"db1.example.com", "db2.example.com", "shop1.example.com", "shop2.example.com", "shop3.example.com"}
	res := Classify(input, nil, "example.com")

	require.Len(t, res.Clusters, 1)
	assert.Equal(t, "shop*.example.com", res.Clusters[0].Prefix)
	assert.Equal(t, "E-commerce & Payments", res.Clusters[0].Category)
}

func TestCategories_FirstAppearanceOrder(t *testing.T) {
	res := Classify([]string{"dev.example.com", "api.example.com", "qa.example.com", "login.example.com"}, nil, "example.com")

	assert.Equal(t, []CategoryCount{
		{Category: "Authentication & Identity", Count: 1},
		{Category: "API & Compute", Count: 1},
		{Category: "Development & Staging", Count: 2},
	}, res.Categories)
}

func TestClassify_SkipsEmptyAndDuplicates(t *testing.T) {
	res := Classify([]string{"", "api.example.com", "api.example.com"}, nil, "example.com")
	assert.Len(t, res.Classified, 1)
	assert.Equal(t, TierStats{Medium: 1}, res.Stats)
}

func TestClassify_EmptyInput(t *testing.T) {
	res := Classify(nil, nil, "example.com")
	assert.Empty(t, res.Classified)
	assert.Empty(t, res.Categories)
	assert.Empty(t, res.Clusters)
	assert.Equal(t, TierStats{}, res.Stats)
}

func TestClassify_Idempotent(t *testing.T) {
	input := []string{
		"node-1.example.com", "node-2.example.com", "node-3.example.com",
		"api.example.com", "admin.example.com", "web.example.com", "shop.example.com",
		"static-01.example.com", "static-02.example.com", "static-03.example.com",
	}
	sources := map[string]string{"api.example.com": "crtsh", "admin.example.com": "virustotal"}

	first, err := jsonutil.Marshal(Classify(input, sources, "example.com"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := jsonutil.Marshal(Classify(input, sources, "example.com"))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestTierRank(t *testing.T) {
	assert.Equal(t, 0, High.Rank())
	assert.Equal(t, 1, Medium.Rank())
	assert.Equal(t, 2, Low.Rank())
	assert.Equal(t, 3, Tier("bogus").Rank())
}
