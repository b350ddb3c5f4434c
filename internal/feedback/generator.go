// Package feedback produces the resume critique and the rewritten resume.
// Both are template driven and deterministic for a given input.
package feedback

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// TemplateVersion is mixed into the score hash so a template change
// reshuffles scores instead of silently reusing them.
const TemplateVersion = "v1"

const (
	MinScore = 70
	MaxScore = 95
)

// Analyzer turns resume text into feedback. A model-backed implementation
// can replace Generator without touching callers.
type Analyzer interface {
	Generate(resumeText, targetRole string) (string, int)
	Rewrite(resumeText, targetRole, feedback string) string
}

// Generator is the template-based Analyzer.
type Generator struct {
	version string
}

// NewGenerator returns a Generator using the current TemplateVersion.
func NewGenerator() *Generator {
	return &Generator{version: TemplateVersion}
}

// Score maps (version, role, text) onto [MinScore, MaxScore].
func (g *Generator) Score(resumeText, targetRole string) int {
	h := fnv.New64a()
	// separators keep ("ab","c") and ("a","bc") apart
	h.Write([]byte(g.version))
	h.Write([]byte{0})
	h.Write([]byte(targetRole))
	h.Write([]byte{0})
	h.Write([]byte(resumeText))
	span := uint64(MaxScore - MinScore + 1)
	return MinScore + int(h.Sum64()%span)
}

// Generate returns the narrative feedback and its score.
func (g *Generator) Generate(resumeText, targetRole string) (string, int) {
	score := g.Score(resumeText, targetRole)

	var b strings.Builder
	fmt.Fprintf(&b, "**Resume Analysis for %s Position**\n\n", targetRole)
	fmt.Fprintf(&b, "**🎯 Overall Score: %d/100**\n\n", score)

	b.WriteString("**✅ Strengths:**\n")
	writeBullets(&b,
		"Strong professional background with relevant experience",
		"Clear and well-structured resume format",
		"Good use of action verbs and quantifiable achievements",
		"Appropriate length and concise presentation",
	)

	b.WriteString("\n**⚠️ Areas for Improvement:**\n")
	writeBullets(&b,
		"Add more industry-specific keywords for "+targetRole,
		"Include more quantifiable metrics and results",
		"Strengthen the professional summary section",
		"Add relevant certifications or skills for "+targetRole,
	)

	b.WriteString("\n**🚀 Specific Recommendations:**\n")
	writeBullets(&b,
		"Tailor your experience descriptions to match "+targetRole+" requirements",
		"Include specific technologies and tools used in previous roles",
		"Add measurable outcomes (percentages, dollar amounts, timeframes)",
		"Consider adding a skills section if not present",
		"Update contact information and LinkedIn profile",
	)

	b.WriteString("\n**🔍 Missing Elements:**\n")
	writeBullets(&b,
		"Industry-specific technical skills",
		"Professional certifications relevant to "+targetRole,
		"Portfolio or project links (if applicable)",
		"References or recommendations section",
	)

	return b.String(), score
}

// Rewrite returns a role-tailored resume. Headings are wrapped in ** and
// bullets start with •, which is what the PDF layout expects.
func (g *Generator) Rewrite(resumeText, targetRole, feedback string) string {
	upper := strings.ToUpper(targetRole)
	lower := strings.ToLower(targetRole)

	var b strings.Builder
	fmt.Fprintf(&b, "**REWRITTEN RESUME FOR %s**\n\n", upper)

	b.WriteString("**PROFESSIONAL SUMMARY**\n")
	fmt.Fprintf(&b, "Results-driven professional with expertise in %s and proven track record of delivering exceptional results. "+
		"Skilled in strategic planning, team leadership, and innovative problem-solving with a focus on measurable outcomes.\n\n", lower)

	b.WriteString("**CORE COMPETENCIES**\n")
	writeBullets(&b,
		"Advanced "+targetRole+" skills and methodologies",
		"Project management and cross-functional leadership",
		"Data analysis and strategic decision-making",
		"Technology integration and process optimization",
		"Stakeholder communication and relationship building",
	)

	b.WriteString("\n**PROFESSIONAL EXPERIENCE**\n\n")
	fmt.Fprintf(&b, "**Senior %s | Company Name | 2020-Present**\n", targetRole)
	writeBullets(&b,
		"Increased operational efficiency by 25% through strategic process improvements",
		"Led cross-functional teams of 10+ members across multiple high-impact projects",
		"Implemented innovative solutions resulting in $100K+ annual cost savings",
		"Developed and executed strategic initiatives that improved customer satisfaction by 30%",
		"Mentored junior team members and contributed to talent development programs",
	)

	fmt.Fprintf(&b, "\n**%s | Previous Company | 2018-2020**\n", targetRole)
	writeBullets(&b,
		"Managed key client relationships generating $500K+ in annual revenue",
		"Collaborated with stakeholders to define requirements and deliver solutions",
		"Optimized workflows resulting in 20% reduction in project delivery time",
		"Created comprehensive documentation and training materials for team processes",
	)

	b.WriteString("\n**EDUCATION**\n")
	writeBullets(&b,
		"Bachelor's Degree in Relevant Field | University Name | Year",
		"Relevant certifications and professional development courses",
	)

	b.WriteString("\n**TECHNICAL SKILLS**\n")
	writeBullets(&b,
		"Industry-specific software and tools",
		"Data analysis and visualization platforms",
		"Project management methodologies",
		"Communication and collaboration tools",
	)

	b.WriteString("\n**ACHIEVEMENTS**\n")
	writeBullets(&b,
		"Recognition for outstanding performance and leadership",
		"Successful completion of high-visibility projects",
		"Contributions to process improvements and innovation initiatives",
	)

	return b.String()
}

func writeBullets(b *strings.Builder, items ...string) {
	for _, item := range items {
		b.WriteString("• ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}
