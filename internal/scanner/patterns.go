package scanner

import "regexp"

// Kind separates credential-like findings from personal data.
type Kind string

const (
	KindSecret Kind = "secret"
	KindPII    Kind = "pii"
)

// Severity ranks a finding. Credential patterns are critical/high,
// PII patterns medium/high.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Pattern is one compiled detection rule. Patterns run in order; when two
// rules match the same span, the earlier rule claims it.
type Pattern struct {
	Name     string
	Kind     Kind
	Severity Severity
	re       *regexp.Regexp
}

// defaultPatterns is the built-in detection set. Specific formats run
// before the generic assignment rule so a GitHub token is reported as a
// GitHub token, not as a generic credential.
var defaultPatterns = []Pattern{
	{
		Name:     "aws_access_key",
		Kind:     KindSecret,
		Severity: SeverityCritical,
		re:       regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	},
	{
		Name:     "github_token",
		Kind:     KindSecret,
		Severity: SeverityCritical,
		re:       regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
	},
	{
		Name:     "private_key",
		Kind:     KindSecret,
		Severity: SeverityCritical,
		re:       regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`),
	},
	{
		Name:     "jwt",
		Kind:     KindSecret,
		Severity: SeverityHigh,
		re:       regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]+\b`),
	},
	{
		Name:     "bearer_token",
		Kind:     KindSecret,
		Severity: SeverityHigh,
		re:       regexp.MustCompile(`(?i)\bbearer[ \t]+[A-Za-z0-9._~+/-]{16,}=*`),
	},
	{
		Name:     "database_url",
		Kind:     KindSecret,
		Severity: SeverityHigh,
		re:       regexp.MustCompile(`(?i)\b(?:postgres|postgresql|mysql|mongodb(?:\+srv)?|redis|amqp)://\S+`),
	},
	{
		// key=value or key: value where the key suggests a secret.
		Name:     "credential_assignment",
		Kind:     KindSecret,
		Severity: SeverityCritical,
		re:       regexp.MustCompile(`(?i)\b(?:password|passwd|secret|token|api[_-]?key|apikey|auth)[ \t]*[=:][ \t]*\S+`),
	},
	{
		Name:     "ssn",
		Kind:     KindPII,
		Severity: SeverityHigh,
		re:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		Name:     "credit_card",
		Kind:     KindPII,
		Severity: SeverityHigh,
		re:       regexp.MustCompile(`\b(?:\d[ -]?){13,15}\d\b`),
	},
	{
		Name:     "email",
		Kind:     KindPII,
		Severity: SeverityMedium,
		re:       regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
	},
	{
		Name:     "phone",
		Kind:     KindPII,
		Severity: SeverityMedium,
		re:       regexp.MustCompile(`\b\+?\d{1,2}[-. ]?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
	},
}
