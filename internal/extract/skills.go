package extract

import (
	"regexp"
	"strings"
)

var skillVocabulary = []string{
	"Python", "Java", "JavaScript", "TypeScript", "Golang", "Rust", "C++", "C#", "Ruby", "PHP",
	"Kotlin", "Swift", "Scala", "Elixir",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "Cassandra", "DynamoDB", "Elasticsearch", "Snowflake",
	"Kafka", "RabbitMQ", "Spark", "Airflow", "dbt", "Hadoop",
	"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Terraform", "Ansible", "Linux", "CI/CD",
	"React", "Vue", "Angular", "Next.js", "Node.js", "Django", "Flask", "FastAPI", "Spring Boot", "Rails", ".NET",
	"GraphQL", "gRPC", "Microservices",
	"Machine Learning", "Deep Learning", "PyTorch", "TensorFlow", "NLP", "LLM", "Pandas",
	"Tableau", "Power BI", "Figma",
}

var skillMatchers = compileSkills(skillVocabulary)

type skillMatcher struct {
	name string
	re   *regexp.Regexp
}

func compileSkills(names []string) []skillMatcher {
	out := make([]skillMatcher, 0, len(names))
	for _, n := range names {
		flags := "(?i)"
		if len(n) <= 2 {
			flags = ""
		}
		out = append(out, skillMatcher{
			name: n,
			re:   regexp.MustCompile(flags + `(?:^|[^A-Za-z0-9+#.])` + regexp.QuoteMeta(n) + `(?:$|[^A-Za-z0-9+#])`),
		})
	}
	return out
}

// FindSkills lists vocabulary skills mentioned in text, in vocabulary order.
func FindSkills(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, m := range skillMatchers {
		if m.re.MatchString(text) {
			out = append(out, m.name)
		}
	}
	return out
}
