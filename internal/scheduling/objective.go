package scheduling

import (
	"fmt"

	mk "github.com/lineforge/shopsched/pkg/minikanren"
)

// buildObjective posts the tardiness objective and returns the variable the
// Search Engine should minimize.
//
// Every time-valued variable in this model uses the value = minute + 1
// convention so domains stay within the engine's 1-based range. Tardiness
// is a *difference* of two such variables, which can be negative (early
// completion), so it needs its own shift rather than reusing the start/end
// convention directly:
//
//	diff_p       = completion(p) + (H - due_m(p))        // = completion_minute - due_m(p) + H + 1, range [1, 2H+1]
//	tW_p         = max(diff_p, H+1)                       // clamps negative diff (early) to the H+1 "zero" reference
//	t_p          = tW_p - H                                // = tardiness_minutes(p) + 1, range [1, H+1]
//	rawSum       = sum(t_p)                                // = Σtardiness_minutes + numProducts
//	objective    = rawSum - (numProducts - 1)              // = Σtardiness_minutes + 1
//
// objective.Value()-1 is therefore the reported tardiness_minutes.
func buildObjective(model *mk.Model, req ScheduleRequest, ops []opRef, ends []*mk.FDVariable, horizonMin int, q Quantizer) (*mk.FDVariable, error) {
	H := horizonMin
	lastOpIndexForProduct := make(map[int]int)
	for i, o := range ops {
		lastOpIndexForProduct[o.productIdx] = i
	}

	tVars := make([]*mk.FDVariable, 0, len(req.Products))
	for pi, p := range req.Products {
		lastIdx, ok := lastOpIndexForProduct[pi]
		if !ok {
			continue // product had no valid operations (already reported as an error upstream)
		}
		completion := ends[lastIdx]

		dueMin, err := q.ToMinutes(p.Due)
		if err != nil {
			return nil, fmt.Errorf("product %s has a non-minute-aligned due date", p.ID)
		}

		diffMax := 2*H + 2
		diffVar := model.NewVariableWithName(mk.NewBitSetDomain(diffMax), fmt.Sprintf("diff_%s", p.ID))
		diffCon, err := mk.NewArithmetic(completion, diffVar, H-dueMin)
		if err != nil {
			return nil, err
		}
		model.AddConstraint(diffCon)

		zeroRef := model.NewVariableWithName(mk.NewBitSetDomainFromValues(diffMax, []int{H + 1}), fmt.Sprintf("zeroref_%s", p.ID))

		tWVar := model.NewVariableWithName(mk.NewBitSetDomain(diffMax), fmt.Sprintf("tw_%s", p.ID))
		maxCon, err := mk.NewMax([]*mk.FDVariable{diffVar, zeroRef}, tWVar)
		if err != nil {
			return nil, err
		}
		model.AddConstraint(maxCon)

		tVar := model.NewVariableWithName(mk.NewBitSetDomain(H+2), fmt.Sprintf("tardiness_%s", p.ID))
		tCon, err := mk.NewArithmetic(tWVar, tVar, -H)
		if err != nil {
			return nil, err
		}
		model.AddConstraint(tCon)

		tVars = append(tVars, tVar)
	}

	numProducts := len(tVars)
	if numProducts == 0 {
		return nil, fmt.Errorf("no product has a valid route to minimize tardiness over")
	}

	coeffs := make([]int, numProducts)
	for i := range coeffs {
		coeffs[i] = 1
	}
	rawMax := numProducts * (H + 2)
	rawSum := model.NewVariableWithName(mk.NewBitSetDomain(rawMax), "tardiness_raw_sum")
	sumCon, err := mk.NewLinearSum(tVars, coeffs, rawSum)
	if err != nil {
		return nil, err
	}
	model.AddConstraint(sumCon)

	objMax := H*numProducts + 1
	objective := model.NewVariableWithName(mk.NewBitSetDomain(objMax), "objective")
	objCon, err := mk.NewArithmetic(rawSum, objective, -(numProducts - 1))
	if err != nil {
		return nil, err
	}
	model.AddConstraint(objCon)

	return objective, nil
}
