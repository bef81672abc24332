package seed

import "time"

func homeHeroDefaults(now time.Time) map[string]any {
	return map[string]any{
		"cohort_text":           "🚀 New Cohorts Starting January 2026",
		"title_main":            "From knowledge to",
		"title_highlight":       "Real-World Skills",
		"description":           "Khadimy bridges the gap between academic theory and industry practice. Learn from experts, build real projects, and join a community of doers.",
		"primary_button_text":   "View Courses",
		"primary_button_link":   "/courses",
		"secondary_button_text": "Join Community",
		"secondary_button_link": "/community",
		"badge_left_text":       "Industry Certified",
		"badge_right_text":      "500+ Students",
		"background_style":      "globe_animation",
		"publishedAt":           now,
	}
}

func aboutPageDefaults(now time.Time) map[string]any {
	return map[string]any{
		"title": "About Khadimy",
		"slug":  AboutSlug,
		"content": "# About Us\n\nKhadimy is a platform dedicated to bridging the gap between academic theory and real-world industry practice.\n\n" +
			"## Our Mission\n\nTo empower learners with practical skills that matter.",
		"seo_title":       "About Us - Khadimy",
		"seo_description": "Learn more about Khadimy and our mission.",
		"publishedAt":     now,
	}
}

func siteIdentityDefaults(now time.Time) map[string]any {
	return map[string]any{
		"site_name":   "Khadimy",
		"alt_text":    "Khadimy Logo",
		"publishedAt": now,
	}
}
