package achievement

import (
	"github.com/shopspring/decimal"
)

// contributionIndex holds the two adjacency mappings every resolver in one
// aggregation call walks. It is built once per call from the snapshot edges so
// the nested LO/PO/course loops never go back to the Source.
type contributionIndex struct {
	// assessmentToLO maps an LO id to its contributing assessment edges,
	// in snapshot order.
	assessmentToLO map[int][]AssessmentLOEdge
	// loToPO maps a PO id to its approved LO edges, in snapshot order.
	loToPO map[int][]LOPOEdge
}

func buildIndex(edgesA []AssessmentLOEdge, edgesB []LOPOEdge) *contributionIndex {
	idx := &contributionIndex{
		assessmentToLO: make(map[int][]AssessmentLOEdge, len(edgesA)),
		loToPO:         make(map[int][]LOPOEdge, len(edgesB)),
	}
	for _, e := range edgesA {
		idx.assessmentToLO[e.LearningOutcomeID] = append(idx.assessmentToLO[e.LearningOutcomeID], e)
	}
	for _, e := range edgesB {
		idx.loToPO[e.ProgramOutcomeID] = append(idx.loToPO[e.ProgramOutcomeID], e)
	}
	return idx
}

// loResult is an LO achievement or its absence. A student with no graded work
// toward an LO has an undefined achievement, never 0%.
type loResult struct {
	val decimal.Decimal
	ok  bool
}

// loCache memoizes LO resolutions within a single aggregation call, partitioned
// by course instance: the same LO reached through different instances sees
// different grade visibility. Never reused across calls; grades can change.
type loCache map[int]map[int]loResult // instance id -> LO id -> result

func (c loCache) get(instanceID, loID int) (loResult, bool) {
	res, ok := c[instanceID][loID]
	return res, ok
}

func (c loCache) put(instanceID, loID int, res loResult) {
	part, ok := c[instanceID]
	if !ok {
		part = make(map[int]loResult)
		c[instanceID] = part
	}
	part[loID] = res
}

// resolveLO computes a student's achievement of one LO within one course
// instance: the weighted average of the student's scores on the LO's
// contributing assessments. Assessments the student has no grade for carry no
// weight; when nothing is graded the result is absent.
func resolveLO(idx *contributionIndex, cache loCache, grades map[int]decimal.Decimal, instanceID, loID int) loResult {
	if res, ok := cache.get(instanceID, loID); ok {
		return res
	}

	scoreTotal := decimal.Zero
	weightTotal := decimal.Zero
	for _, e := range idx.assessmentToLO[loID] {
		if e.InstanceID != instanceID {
			continue
		}
		score, graded := grades[e.AssessmentID]
		if !graded {
			continue
		}
		scoreTotal = scoreTotal.Add(score.Mul(e.Weight))
		weightTotal = weightTotal.Add(e.Weight)
	}

	var res loResult
	if weightTotal.IsPositive() {
		res = loResult{val: scoreTotal.Div(weightTotal), ok: true}
	}
	cache.put(instanceID, loID, res)
	return res
}

// resolvePO composes the non-absent LO achievements under one PO, restricted to
// the LOs of one course template, into the course-scoped PO achievement.
func resolvePO(idx *contributionIndex, cache loCache, grades map[int]decimal.Decimal, instanceID, templateID, poID int) loResult {
	achTotal := decimal.Zero
	weightTotal := decimal.Zero
	for _, e := range idx.loToPO[poID] {
		if e.TemplateID != templateID {
			continue
		}
		lo := resolveLO(idx, cache, grades, instanceID, e.LearningOutcomeID)
		if !lo.ok {
			continue
		}
		achTotal = achTotal.Add(lo.val.Mul(e.Weight))
		weightTotal = weightTotal.Add(e.Weight)
	}

	if !weightTotal.IsPositive() {
		return loResult{}
	}
	return loResult{val: achTotal.Div(weightTotal), ok: true}
}
