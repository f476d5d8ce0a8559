package llm

import (
	"fmt"
	"strings"

	"github.com/SamuelRCrider/rfq-scrub/core"
)

// sectionGuidance describes each section to the model, in section order
var sectionGuidance = []struct {
	key  string
	hint string
}{
	{core.SectionProjectOverview, "Main description and purpose"},
	{core.SectionScopeOfWork, "Detailed work requirements"},
	{core.SectionDeliverables, "Expected outputs and products"},
	{core.SectionTimeline, "Important dates, deadlines, and duration"},
	{core.SectionLocation, "Where work will be performed (general region or state only)"},
	{core.SectionSubmissionRequirements, "How vendors should respond"},
	{core.SectionTechnicalRequirements, "Specifications and standards"},
	{core.SectionQualifications, "Required vendor capabilities"},
	{core.SectionEvaluationCriteria, "How proposals will be judged"},
}

// SystemPrompt returns the system prompt for solicitation extraction
func SystemPrompt() string {
	return "You are an expert at analyzing government RFQ documents and extracting key information."
}

// BuildExtractionPrompt builds the user prompt asking the model for a JSON
// record of the given solicitation document.
func BuildExtractionPrompt(document string) string {
	var b strings.Builder

	b.WriteString("Analyze this government RFQ document and extract the following information in JSON format.\n\n")
	b.WriteString("DOCUMENT CONTENT:\n")
	b.WriteString(document)
	b.WriteString("\n\nExtract and structure these sections:\n\n")
	for i, s := range sectionGuidance {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, strings.ToUpper(s.key), s.hint)
	}

	b.WriteString("\nRULES:\n")
	b.WriteString("- Ignore cover pages, legal boilerplate, and federal acquisition regulations\n")
	b.WriteString("- Focus on actionable business requirements, not procedural language\n")
	fmt.Fprintf(&b, "- If a section is not clearly present, set it to %q\n", core.NotSpecified)
	b.WriteString("- Write clean, business-focused content suitable for vendors\n")

	b.WriteString("\nRespond with a single JSON object of this shape:\n{\n")
	for _, s := range sectionGuidance {
		fmt.Fprintf(&b, "  %q: \"...\",\n", s.key)
	}
	fmt.Fprintf(&b, "  %q: [\"list of sections found\"],\n", core.KeyExtractedSections)
	fmt.Fprintf(&b, "  %q: 0.95\n}\n", core.KeyConfidenceScore)

	return b.String()
}
