package features

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"testing"

	"github.com/cucumber/godog"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/minquantity-rule/example/salesdoc"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
	"github.com/AntonStoeckl/minquantity-rule/testutil/catalogtest"
)

type ruleTestContext struct {
	db       *sql.DB
	catalog  catalogengine.Catalog
	policy   quantityrule.Policy
	document *salesdoc.Document
	outcome  quantityrule.Outcome
}

func (c *ruleTestContext) reset() error {
	c.close()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	catalog, err := catalogengine.NewCatalogFromSQLDB(db, catalogengine.WithDialect(catalogengine.DialectSQLite))
	if err != nil {
		return err
	}

	if err := catalog.EnsureSchema(context.Background()); err != nil {
		return err
	}

	c.db = db
	c.catalog = catalog
	c.policy = quantityrule.Policy{}
	c.document = salesdoc.NewDocument()
	c.outcome = ""

	return nil
}

func (c *ruleTestContext) close() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}

func (c *ruleTestContext) theCatalogKnowsTheFollowingMinimumQuantities(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		article, raw := row.Cells[0].Value, row.Cells[1].Value

		err := catalogtest.InsertArticleWithRawRule(context.Background(), c.db, catalogengine.DialectSQLite, article, raw)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *ruleTestContext) theCatalogKnowsArticleWithoutAMinimumQuantity(article string) error {
	return catalogtest.InsertArticleWithRawRule(context.Background(), c.db, catalogengine.DialectSQLite, article, nil)
}

func (c *ruleTestContext) theCatalogIsUnavailable() error {
	return c.db.Close()
}

func (c *ruleTestContext) theRuleAlwaysOverwrites() error {
	c.policy.ForceAlways = true
	return nil
}

func (c *ruleTestContext) theRuleOnlyOverwritesEmptyOrUnitQuantities() error {
	c.policy.ForceAlways = false
	return nil
}

func (c *ruleTestContext) aSalesDocumentWithALineForWithQuantity(article string, quantity float64) error {
	c.document.AddLine(salesdoc.NewLine(article, quantity))
	return nil
}

func (c *ruleTestContext) aSalesDocumentWithALockedLineForWithQuantity(article string, quantity float64) error {
	c.document.AddLine(salesdoc.NewLockedLine(article, quantity))
	return nil
}

func (c *ruleTestContext) theArticleIsIdentifiedOnLine(article string, lineIndex int) error {
	handler, err := quantityrule.NewHandler(salesdoc.NewEditor(c.document), c.catalog, c.policy)
	if err != nil {
		return err
	}

	c.outcome = handler.ArticleIdentified(context.Background(), quantityrule.ArticleIdentifiedEvent{
		Article:   article,
		LineIndex: lineIndex,
	})

	return nil
}

func (c *ruleTestContext) theQuantityOfLineIs(lineIndex int, expected float64) error {
	line, err := c.document.EditableLine(lineIndex)
	if err != nil {
		return err
	}

	quantity, err := line.Quantity()
	if err != nil {
		return err
	}

	if math.Abs(quantity-expected) > 1e-9 {
		return fmt.Errorf("expected quantity %v on line %d, got %v", expected, lineIndex, quantity)
	}

	return nil
}

func (c *ruleTestContext) theOutcomeIs(expected string) error {
	if string(c.outcome) != expected {
		return fmt.Errorf("expected outcome %q, got %q", expected, c.outcome)
	}

	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &ruleTestContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	ctx.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		tc.close()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog knows the following minimum quantities:$`, tc.theCatalogKnowsTheFollowingMinimumQuantities)
	ctx.Step(`^the catalog knows article "([^"]*)" without a minimum quantity$`, tc.theCatalogKnowsArticleWithoutAMinimumQuantity)
	ctx.Step(`^the catalog is unavailable$`, tc.theCatalogIsUnavailable)
	ctx.Step(`^the rule always overwrites$`, tc.theRuleAlwaysOverwrites)
	ctx.Step(`^the rule only overwrites empty or unit quantities$`, tc.theRuleOnlyOverwritesEmptyOrUnitQuantities)
	ctx.Step(`^a sales document with a line for "([^"]*)" with quantity (-?\d+(?:\.\d+)?)$`, tc.aSalesDocumentWithALineForWithQuantity)
	ctx.Step(`^a sales document with a locked line for "([^"]*)" with quantity (-?\d+(?:\.\d+)?)$`, tc.aSalesDocumentWithALockedLineForWithQuantity)

	// When steps
	ctx.Step(`^the article "([^"]*)" is identified on line (-?\d+)$`, tc.theArticleIsIdentifiedOnLine)

	// Then steps
	ctx.Step(`^the quantity of line (\d+) is (-?\d+(?:\.\d+)?)$`, tc.theQuantityOfLineIs)
	ctx.Step(`^the outcome is "([^"]*)"$`, tc.theOutcomeIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"minimum_quantity.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
