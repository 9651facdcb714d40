// Package staging implements the data-staging collaborators: destination
// table naming, stager composition, and upload of staged files to the
// run's staging bucket.
package staging

import (
	"fmt"
	"regexp"
	"strings"

	"dts-connector/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// TemplatizeTableName renders a destination table template against the
// run's parameters. Besides every run parameter, the placeholders
// {run_time}, {run_yyyymmdd}, and {user_id} are available. The BigQuery
// partition decorator ("$" suffix) passes through untouched. An unknown
// placeholder is a validation failure.
func TemplatizeTableName(template string, run *domain.RunDescriptor) (string, error) {
	values := make(map[string]string, len(run.Params)+3)
	for k, v := range run.Params {
		values[k] = fmt.Sprintf("%v", v)
	}
	values["run_time"] = run.RunTime.Format("20060102T150405Z")
	values["run_yyyymmdd"] = run.RunTime.Format("20060102")
	values["user_id"] = run.UserID

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := strings.Trim(m, "{}")
		v, ok := values[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", domain.ErrValidation("table template %q references unknown parameters %v", template, missing)
	}
	return out, nil
}
