package dmn

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ruleweave/decisions/decision"
)

// ParseDefinition parses a DMN document holding exactly one decision and
// converts its decision table into the engine model. The decision's id
// attribute becomes the definition key; version and tenant scope are
// assigned at deployment time, not carried in the document.
func ParseDefinition(data []byte) (*decision.DecisionDefinition, error) {
	var doc TDefinitions
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse DMN document: %w", err)
	}

	if len(doc.Decisions) != 1 {
		return nil, fmt.Errorf("expected exactly one decision in document, found %d", len(doc.Decisions))
	}
	dec := doc.Decisions[0]
	if dec.Id == "" {
		return nil, fmt.Errorf("decision has no id")
	}

	table, err := convertTable(dec.DecisionTable)
	if err != nil {
		return nil, fmt.Errorf("decision '%s': %w", dec.Id, err)
	}

	return &decision.DecisionDefinition{
		Key:   dec.Id,
		Name:  dec.Name,
		Table: table,
	}, nil
}

func convertTable(t TDecisionTable) (*decision.DecisionTable, error) {
	policy, err := convertHitPolicy(t.HitPolicy)
	if err != nil {
		return nil, err
	}

	table := &decision.DecisionTable{HitPolicy: policy}

	for i, in := range t.Inputs {
		name := in.Label
		if name == "" {
			name = strings.TrimSpace(in.InputExpression.Text)
		}
		if name == "" {
			name = fmt.Sprintf("input%d", i+1)
		}
		table.Inputs = append(table.Inputs, decision.InputClause{Name: name, Label: in.Label})
	}

	for i, out := range t.Outputs {
		name := out.Name
		if name == "" {
			name = out.Label
		}
		if name == "" {
			name = fmt.Sprintf("output%d", i+1)
		}
		table.Outputs = append(table.Outputs, decision.OutputClause{Name: name, Label: out.Label})
	}

	for i, rule := range t.Rules {
		if len(rule.InputEntry) != len(table.Inputs) {
			return nil, fmt.Errorf("rule %d has %d input entries, table declares %d input clauses",
				i+1, len(rule.InputEntry), len(table.Inputs))
		}
		if len(rule.OutputEntry) != len(table.Outputs) {
			return nil, fmt.Errorf("rule %d has %d output entries, table declares %d output clauses",
				i+1, len(rule.OutputEntry), len(table.Outputs))
		}

		row := decision.Rule{}
		for _, entry := range rule.InputEntry {
			row.InputEntries = append(row.InputEntries, normalizeEntry(entry.Text))
		}
		for _, entry := range rule.OutputEntry {
			row.OutputEntries = append(row.OutputEntries, strings.TrimSpace(entry.Text))
		}
		table.Rules = append(table.Rules, row)
	}

	return table, nil
}

// normalizeEntry maps the DMN "irrelevant" markers to the engine's empty
// entry, which matches unconditionally.
func normalizeEntry(text string) string {
	text = strings.TrimSpace(text)
	if text == "-" {
		return ""
	}
	return text
}

func convertHitPolicy(attr string) (decision.HitPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(attr)) {
	case "", "UNIQUE":
		return decision.HitPolicyUnique, nil
	case "FIRST":
		return decision.HitPolicyFirst, nil
	case "ANY":
		return decision.HitPolicyAny, nil
	case "COLLECT":
		return decision.HitPolicyCollect, nil
	case "RULE ORDER":
		return decision.HitPolicyRuleOrder, nil
	default:
		return "", fmt.Errorf("unsupported hit policy %q", attr)
	}
}
