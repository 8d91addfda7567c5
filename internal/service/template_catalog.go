package service

import (
	"sort"
)

// TemplateCatalog is a fixed, immutable mapping from template name to a
// predefined query string, plus a category index for the listing endpoint.
// It is constructed once and passed in explicitly so catalog content is
// swappable per environment.
type TemplateCatalog struct {
	templates  map[string]string
	categories map[string][]string
}

// NewTemplateCatalog returns the built-in analytics catalog.
func NewTemplateCatalog() *TemplateCatalog {
	return &TemplateCatalog{
		templates:  builtinTemplates,
		categories: builtinCategories,
	}
}

// NewTemplateCatalogWith builds a catalog from explicit mappings.
func NewTemplateCatalogWith(templates map[string]string, categories map[string][]string) *TemplateCatalog {
	return &TemplateCatalog{templates: templates, categories: categories}
}

// Lookup returns the query text for a template name.
func (tc *TemplateCatalog) Lookup(name string) (string, bool) {
	query, ok := tc.templates[name]
	return query, ok
}

// Names returns all template names in sorted order.
func (tc *TemplateCatalog) Names() []string {
	names := make([]string, 0, len(tc.templates))
	for name := range tc.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories returns the category index.
func (tc *TemplateCatalog) Categories() map[string][]string {
	out := make(map[string][]string, len(tc.categories))
	for category, names := range tc.categories {
		out[category] = append([]string(nil), names...)
	}
	return out
}

var builtinCategories = map[string][]string{
	"gpa":           {"gpa_by_platform", "gpa_vs_hours", "gpa_distribution"},
	"sleep_stress":  {"sleep_vs_stress", "sleep_by_day", "stress_distribution"},
	"platform":      {"platform_usage", "platform_popularity", "weekly_pattern"},
	"mental_health": {"mental_health_correlation", "mental_health_by_platform"},
	"summary":       {"summary_stats"},
}

var builtinTemplates = map[string]string{
	"gpa_by_platform": `
		SELECT
			platform,
			AVG(gpa) as avg_gpa,
			AVG(hours_per_day) as avg_hours,
			COUNT(*) as student_count
		FROM student_social_media_usage
		WHERE gpa IS NOT NULL AND hours_per_day IS NOT NULL
		GROUP BY platform
		ORDER BY avg_gpa DESC
		LIMIT 100`,

	"gpa_vs_hours": `
		SELECT
			student_id,
			AVG(hours_per_day) as social_media_hours,
			AVG(gpa) as gpa
		FROM student_social_media_usage
		WHERE gpa IS NOT NULL AND hours_per_day IS NOT NULL
		GROUP BY student_id
		LIMIT 500`,

	"gpa_distribution": `
		SELECT
			CASE
				WHEN gpa >= 3.5 THEN '3.5-4.0'
				WHEN gpa >= 3.0 THEN '3.0-3.4'
				WHEN gpa >= 2.5 THEN '2.5-2.9'
				WHEN gpa >= 2.0 THEN '2.0-2.4'
				ELSE '< 2.0'
			END as gpa_range,
			COUNT(*) as student_count,
			AVG(hours_per_day) as avg_social_media_hours
		FROM student_social_media_usage
		WHERE gpa IS NOT NULL
		GROUP BY 1`,

	"sleep_vs_stress": `
		SELECT
			student_id,
			AVG(sleep_hours) as sleep_hours,
			AVG(stress_level) as stress_level,
			AVG(mental_health_score) as mental_health
		FROM student_sleep_stress
		WHERE sleep_hours IS NOT NULL AND stress_level IS NOT NULL
		GROUP BY student_id
		LIMIT 500`,

	"sleep_by_day": `
		SELECT
			day_of_week,
			AVG(sleep_hours) as avg_sleep,
			AVG(stress_level) as avg_stress
		FROM student_sleep_stress
		WHERE day_of_week IS NOT NULL
		GROUP BY day_of_week
		ORDER BY
			CASE day_of_week
				WHEN 'Monday' THEN 1
				WHEN 'Tuesday' THEN 2
				WHEN 'Wednesday' THEN 3
				WHEN 'Thursday' THEN 4
				WHEN 'Friday' THEN 5
				WHEN 'Saturday' THEN 6
				WHEN 'Sunday' THEN 7
			END
		LIMIT 50`,

	"stress_distribution": `
		SELECT
			CASE
				WHEN stress_level >= 8 THEN 'Very High'
				WHEN stress_level >= 6 THEN 'High'
				WHEN stress_level >= 4 THEN 'Moderate'
				WHEN stress_level >= 2 THEN 'Low'
				ELSE 'Very Low'
			END as stress_category,
			COUNT(*) as student_count,
			AVG(sleep_hours) as avg_sleep_hours
		FROM student_sleep_stress
		WHERE stress_level IS NOT NULL
		GROUP BY 1`,

	"platform_usage": `
		SELECT
			platform,
			AVG(hours_per_day) as avg_hours,
			MIN(hours_per_day) as min_hours,
			MAX(hours_per_day) as max_hours,
			COUNT(DISTINCT student_id) as unique_users
		FROM student_social_media_usage
		GROUP BY platform
		ORDER BY avg_hours DESC
		LIMIT 50`,

	"platform_popularity": `
		SELECT
			platform,
			COUNT(DISTINCT student_id) as user_count
		FROM student_social_media_usage
		GROUP BY platform
		ORDER BY user_count DESC
		LIMIT 50`,

	"weekly_pattern": `
		SELECT
			day_of_week,
			AVG(hours_per_day) as avg_daily_hours,
			COUNT(DISTINCT student_id) as active_users
		FROM student_social_media_usage
		GROUP BY day_of_week
		ORDER BY
			CASE day_of_week
				WHEN 'Monday' THEN 1
				WHEN 'Tuesday' THEN 2
				WHEN 'Wednesday' THEN 3
				WHEN 'Thursday' THEN 4
				WHEN 'Friday' THEN 5
				WHEN 'Saturday' THEN 6
				WHEN 'Sunday' THEN 7
			END
		LIMIT 20`,

	"mental_health_correlation": `
		SELECT
			student_id,
			AVG(hours_per_day) as social_media_hours,
			AVG(mental_health_score) as mental_health_score
		FROM student_social_media_usage u
		JOIN student_mental_health m ON u.student_id = m.student_id
		GROUP BY student_id
		LIMIT 500`,

	"mental_health_by_platform": `
		SELECT
			platform,
			AVG(mental_health_score) as avg_mental_health,
			AVG(hours_per_day) as avg_hours
		FROM student_social_media_usage
		WHERE mental_health_score IS NOT NULL
		GROUP BY platform
		ORDER BY avg_mental_health DESC
		LIMIT 50`,

	"summary_stats": `
		SELECT
			COUNT(DISTINCT student_id) as total_students,
			AVG(gpa) as avg_gpa,
			AVG(hours_per_day) as avg_social_media_hours,
			AVG(sleep_hours) as avg_sleep_hours,
			AVG(stress_level) as avg_stress_level
		FROM student_social_media_usage s
		LEFT JOIN student_sleep_stress ss ON s.student_id = ss.student_id`,
}
