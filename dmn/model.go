// Package dmn parses DMN 1.x decision table documents into the engine's
// in-memory table model.
package dmn

import "encoding/xml"

type TDefinitions struct {
	XMLName   xml.Name    `xml:"definitions"`
	Id        string      `xml:"id,attr"`
	Name      string      `xml:"name,attr"`
	Namespace string      `xml:"namespace,attr"`
	Decisions []TDecision `xml:"decision"`
}

type TDecision struct {
	Id            string         `xml:"id,attr"`
	Name          string         `xml:"name,attr"`
	DecisionTable TDecisionTable `xml:"decisionTable"`
}

type TDecisionTable struct {
	Id        string    `xml:"id,attr"`
	HitPolicy string    `xml:"hitPolicy,attr"`
	Inputs    []TInput  `xml:"input"`
	Outputs   []TOutput `xml:"output"`
	Rules     []TRule   `xml:"rule"`
}

type TInput struct {
	Id              string           `xml:"id,attr"`
	Label           string           `xml:"label,attr"`
	InputExpression TInputExpression `xml:"inputExpression"`
}

type TInputExpression struct {
	Id      string `xml:"id,attr"`
	TypeRef string `xml:"typeRef,attr"`
	Text    string `xml:"text"`
}

type TOutput struct {
	Id      string `xml:"id,attr"`
	Label   string `xml:"label,attr"`
	Name    string `xml:"name,attr"`
	TypeRef string `xml:"typeRef,attr"`
}

type TRule struct {
	Id          string         `xml:"id,attr"`
	InputEntry  []TInputEntry  `xml:"inputEntry"`
	OutputEntry []TOutputEntry `xml:"outputEntry"`
}

type TInputEntry struct {
	Id   string `xml:"id,attr"`
	Text string `xml:"text"`
}

type TOutputEntry struct {
	Id   string `xml:"id,attr"`
	Text string `xml:"text"`
}
