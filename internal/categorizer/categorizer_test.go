package categorizer_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-ingest/internal/categorizer"
	mock_categorizer "github.com/insightdelivered/statement-ingest/internal/categorizer/mocks"
	"github.com/insightdelivered/statement-ingest/internal/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rule(id, cat, pattern string, mt models.MatchType, priority int, created time.Time) models.CategoryRule {
	return models.CategoryRule{
		ID:         id,
		CategoryID: cat,
		Pattern:    pattern,
		MatchType:  mt,
		Priority:   priority,
		Enabled:    true,
		CreatedAt:  created,
	}
}

func newEngine(t *testing.T, cfg *models.FamilyConfig) *categorizer.Engine {
	t.Helper()
	ctrl := gomock.NewController(t)
	p := mock_categorizer.NewMockConfigProvider(ctrl)
	p.EXPECT().FamilyConfig(gomock.Any(), "fam-1").Return(cfg, nil).AnyTimes()
	return categorizer.NewEngine(p, nil)
}

func TestCategorize_PriorityWins(t *testing.T) {
	e := newEngine(t, &models.FamilyConfig{
		Rules: []models.CategoryRule{
			rule("r1", "cat-low", "grab", models.MatchContains, 1, t0),
			rule("r2", "cat-high", "grab", models.MatchContains, 10, t0),
		},
	})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "GRAB TAXI"})
	require.NoError(t, err)
	assert.Equal(t, "cat-high", got.CategoryID)
	assert.Equal(t, models.SourceRule, got.Source)
	assert.Contains(t, got.Explanation, "priority 10")
}

func TestCategorize_TieGoesToNewerRule(t *testing.T) {
	e := newEngine(t, &models.FamilyConfig{
		Rules: []models.CategoryRule{
			rule("r-old", "cat-old", "shell", models.MatchContains, 5, t0),
			rule("r-new", "cat-new", "shell", models.MatchContains, 5, t0.Add(time.Hour)),
		},
	})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "SHELL RAMA 4"})
	require.NoError(t, err)
	assert.Equal(t, "cat-new", got.CategoryID)
}

func TestCategorize_RuleBeatsHint(t *testing.T) {
	e := newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{
			{ID: "cat-food", Name: "Food & Dining", Active: true},
			{ID: "cat-work", Name: "Work", Active: true},
		},
		Rules: []models.CategoryRule{
			rule("r1", "cat-work", "xyzcorp", models.MatchContains, 1, t0),
		},
	})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "GRABFOOD XYZCORP LUNCH"})
	require.NoError(t, err)
	assert.Equal(t, "cat-work", got.CategoryID)
	assert.Equal(t, models.SourceRule, got.Source)
}

func TestCategorize_MatchTypes(t *testing.T) {
	tests := []struct {
		name  string
		mt    models.MatchType
		pat   string
		desc  string
		match bool
	}{
		{"contains", models.MatchContains, "lotus", "Tesco LOTUS Rama 3", true},
		{"starts with", models.MatchStartsWith, "tops", "TOPS Central World", true},
		{"starts with miss", models.MatchStartsWith, "central", "TOPS Central World", false},
		{"ends with", models.MatchEndsWith, "world", "TOPS Central World", true},
		{"exact", models.MatchExact, "netflix.com", "  NETFLIX.COM ", true},
		{"exact miss", models.MatchExact, "netflix", "NETFLIX.COM", false},
		{"regex", models.MatchRegex, `^7-?11\b`, "7-11 SILOM", true},
		{"regex case insensitive", models.MatchRegex, `shopee`, "SHOPEE PAY", true},
		{"malformed regex", models.MatchRegex, `([unclosed`, "([unclosed", false},
		{"empty pattern", models.MatchContains, "  ", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, &models.FamilyConfig{
				Rules: []models.CategoryRule{rule("r1", "cat-1", tt.pat, tt.mt, 1, t0)},
			})
			got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: tt.desc})
			require.NoError(t, err)
			if tt.match {
				assert.Equal(t, models.SourceRule, got.Source)
				assert.Equal(t, "cat-1", got.CategoryID)
			} else {
				assert.Equal(t, models.SourceNone, got.Source)
				assert.Empty(t, got.CategoryID)
			}
		})
	}
}

func TestCategorize_MalformedRegexDoesNotBlockOthers(t *testing.T) {
	e := newEngine(t, &models.FamilyConfig{
		Rules: []models.CategoryRule{
			rule("bad", "cat-bad", `(`, models.MatchRegex, 100, t0),
			rule("good", "cat-good", "bts", models.MatchContains, 1, t0),
		},
	})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "BTS TOPUP"})
	require.NoError(t, err)
	assert.Equal(t, "cat-good", got.CategoryID)
}

func TestCategorize_ChannelFilter(t *testing.T) {
	r := rule("r1", "cat-atm", "cash", models.MatchContains, 1, t0)
	r.Channel = "atm"
	e := newEngine(t, &models.FamilyConfig{Rules: []models.CategoryRule{r}})
	ctx := context.Background()

	got, err := e.Categorize(ctx, "fam-1", categorizer.Input{Description: "CASH", Channel: "ATM"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceRule, got.Source)

	got, err = e.Categorize(ctx, "fam-1", categorizer.Input{Description: "CASH", Channel: "Mobile App"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceNone, got.Source)
}

func TestCategorize_DisabledRuleIgnored(t *testing.T) {
	r := rule("r1", "cat-1", "netflix", models.MatchContains, 1, t0)
	r.Enabled = false
	e := newEngine(t, &models.FamilyConfig{Rules: []models.CategoryRule{r}})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "NETFLIX"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceNone, got.Source)
}

func TestCategorize_HintNeedsActiveCategory(t *testing.T) {
	ctx := context.Background()
	in := categorizer.Input{Description: "NETFLIX.COM BANGKOK"}

	e := newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{{ID: "cat-ent", Name: "Entertainment", Active: true}},
	})
	got, err := e.Categorize(ctx, "fam-1", in)
	require.NoError(t, err)
	assert.Equal(t, models.SourceHint, got.Source)
	assert.Equal(t, "cat-ent", got.CategoryID)
	assert.Contains(t, got.Explanation, "NETFLIX")

	e = newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{{ID: "cat-ent", Name: "Entertainment", Active: false}},
	})
	got, err = e.Categorize(ctx, "fam-1", in)
	require.NoError(t, err)
	assert.Equal(t, models.SourceNone, got.Source)

	e = newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{{ID: "cat-ent", Name: "entertainment", Active: true}},
	})
	got, err = e.Categorize(ctx, "fam-1", in)
	require.NoError(t, err)
	assert.Equal(t, models.SourceNone, got.Source, "category names must match exactly")
}

func TestCategorize_HintSkipsMissingCategory(t *testing.T) {
	// GRABFOOD is a Food & Dining keyword and GRAB a Transportation one.
	e := newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{{ID: "cat-trans", Name: "Transportation", Active: true}},
	})

	got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: "GRABFOOD ORDER"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceHint, got.Source)
	assert.Equal(t, "cat-trans", got.CategoryID)
}

func TestCategorizeBatch_MatchesSingle(t *testing.T) {
	cfg := &models.FamilyConfig{
		Categories: []models.Category{
			{ID: "cat-shop", Name: "Shopping", Active: true},
			{ID: "cat-grocery", Name: "Groceries", Active: true},
		},
		Rules: []models.CategoryRule{
			rule("r1", "cat-rent", "condo", models.MatchContains, 3, t0),
			rule("r2", "cat-big", `^big\s?c`, models.MatchRegex, 2, t0),
		},
	}
	ins := []categorizer.Input{
		{Description: "CONDO FEE JAN"},
		{Description: "BIG C RAMA 2"},
		{Description: "SHOPEE*ORDER"},
		{Description: "unknown merchant"},
		{Description: "7-ELEVEN SATHORN"},
	}

	ctrl := gomock.NewController(t)
	p := mock_categorizer.NewMockConfigProvider(ctrl)
	// One load for the batch plus one per single call.
	p.EXPECT().FamilyConfig(gomock.Any(), "fam-1").Return(cfg, nil).Times(1 + len(ins))
	e := categorizer.NewEngine(p, nil)
	ctx := context.Background()

	batch, err := e.CategorizeBatch(ctx, "fam-1", ins)
	require.NoError(t, err)
	require.Len(t, batch, len(ins))

	for i, in := range ins {
		single, err := e.Categorize(ctx, "fam-1", in)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "input %d", i)
	}

	assert.Equal(t, "cat-rent", batch[0].CategoryID)
	assert.Equal(t, "cat-big", batch[1].CategoryID)
	assert.Equal(t, "cat-shop", batch[2].CategoryID)
	assert.Equal(t, models.SourceNone, batch[3].Source)
	assert.Equal(t, "cat-grocery", batch[4].CategoryID)
}

func TestCategorize_ProviderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mock_categorizer.NewMockConfigProvider(ctrl)
	p.EXPECT().FamilyConfig(gomock.Any(), "fam-1").Return(nil, errors.New("db down"))

	_, err := categorizer.NewEngine(p, nil).Categorize(context.Background(), "fam-1", categorizer.Input{Description: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestLoadHints(t *testing.T) {
	h, err := categorizer.LoadHints(strings.NewReader("- category: Pets\n  keywords: [pet shop, ' vet ']\n"))
	require.NoError(t, err)
	groups := h.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"PET SHOP", "VET"}, groups[0].Keywords)

	_, err = categorizer.LoadHints(strings.NewReader("- category: ''\n"))
	assert.Error(t, err)

	_, err = categorizer.LoadHints(strings.NewReader("- name: Pets\n"))
	assert.Error(t, err, "unknown fields are rejected")

	assert.NotEmpty(t, categorizer.DefaultHints().Groups())
}

func TestDefaultHints_ShortNamesNeedContext(t *testing.T) {
	e := newEngine(t, &models.FamilyConfig{
		Categories: []models.Category{
			{ID: "cat-util", Name: "Utilities", Active: true},
			{ID: "cat-grocery", Name: "Groceries", Active: true},
		},
	})

	tests := []struct {
		desc string
		want string
	}{
		{"MEA BILL 0123456", "cat-util"},
		{"PEA BILL PAYMENT", "cat-util"},
		{"AIS FIBRE 8801", "cat-util"},
		{"การไฟฟ้านครหลวง", "cat-util"},
		{"TOPS MARKET SILOM", "cat-grocery"},
		{"SET MEAL BANGKOK", ""},
		{"PEACH CAFE", ""},
		{"LAPTOPS PLUS", ""},
		{"MAISON KAISER", ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := e.Categorize(context.Background(), "fam-1", categorizer.Input{Description: tt.desc})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.CategoryID)
		})
	}
}
