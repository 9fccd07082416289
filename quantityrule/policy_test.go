package quantityrule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

func Test_Policy_ShouldOverwrite(t *testing.T) {
	testCases := []struct {
		name        string
		policy      quantityrule.Policy
		quantity    float64
		overwritten bool
	}{
		{name: "zero", quantity: 0, overwritten: true},
		{name: "negative", quantity: -1, overwritten: true},
		{name: "one", quantity: 1, overwritten: true},
		{name: "within default epsilon of one", quantity: 1.0000005, overwritten: true},
		{name: "outside default epsilon of one", quantity: 1.00001, overwritten: false},
		{name: "five", quantity: 5.0, overwritten: false},
		{name: "forced five", policy: quantityrule.Policy{ForceAlways: true}, quantity: 5.0, overwritten: true},
		{name: "wide epsilon", policy: quantityrule.Policy{Epsilon: 0.1}, quantity: 1.05, overwritten: true},
		{name: "wide epsilon near zero", policy: quantityrule.Policy{Epsilon: 0.1}, quantity: 0.09, overwritten: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overwritten, tc.policy.ShouldOverwrite(tc.quantity))
		})
	}
}
