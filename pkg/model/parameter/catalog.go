package parameter

const (
	CategoryUI             = "ui"
	CategoryFeatures       = "features"
	CategorySystem         = "system"
	CategoryAds            = "ads"
	CategoryVotingSystem   = "voting_system"
	CategoryUIDetails      = "ui_details"
	CategoryContentDisplay = "content_display"
	CategoryPerformance    = "performance"
	CategoryAccessibility  = "accessibility"
	CategoryInteraction    = "interaction"
)

const (
	NameColorScheme         = "colorScheme"
	NameFontSize            = "fontSize"
	NameLayout              = "layout"
	NameDarkMode            = "darkMode"
	NameLiveResults         = "liveResults"
	NameAnonymousVoting     = "anonymousVoting"
	NameAutoExecuteDelay    = "autoExecuteDelay"
	NameMaxPollsPerUser     = "maxPollsPerUser"
	NameDefaultPollDuration = "defaultPollDuration"
	NameWeightSystem        = "weightSystem"
	NameConsensusAlgorithm  = "consensusAlgorithm"
)

const (
	ValueEnabled   = "enabled"
	ValueDisabled  = "disabled"
	ValueUnlimited = "unlimited"
	ValueImmediate = "immediate"
	ValueManual    = "manual"
)

func def(category string, name string, current string, displayName string, description string, options []string, labels map[string]string) *Parameter {
	if labels == nil {
		labels = make(map[string]string, len(options))
		for _, option := range options {
			labels[TitleLabel(option)] = option
		}
	}
	return &Parameter{
		Category:    category,
		Name:        name,
		Current:     current,
		Options:     options,
		Description: description,
		DisplayName: displayName,
		Labels:      labels,
	}
}

var toggleLabels = map[string]string{
	"Enabled":  ValueEnabled,
	"On":       ValueEnabled,
	"Disabled": ValueDisabled,
	"Off":      ValueDisabled,
}

// DefaultCatalog returns the built-in parameter definitions with their default values.
func DefaultCatalog() []*Parameter {
	return []*Parameter{
		def(CategoryUI, NameColorScheme, "blue", "Color Scheme", "site color scheme",
			[]string{"blue", "green", "purple", "orange", "dark"}, nil),
		def(CategoryUI, NameFontSize, "medium", "Font Size", "base font size",
			[]string{"small", "medium", "large", "extra-large"}, nil),
		def(CategoryUI, NameLayout, "standard", "Layout", "page layout",
			[]string{"standard", "compact", "wide", "minimal"}, nil),

		def(CategoryFeatures, NameDarkMode, ValueDisabled, "Dark Mode", "dark mode",
			[]string{ValueEnabled, ValueDisabled, "auto"}, map[string]string{
				"Enabled": ValueEnabled, "On": ValueEnabled, "Disabled": ValueDisabled, "Off": ValueDisabled, "Auto": "auto", "Follow System": "auto",
			}),
		def(CategoryFeatures, NameLiveResults, ValueEnabled, "Live Results", "show and preview results while a poll is running",
			[]string{ValueEnabled, ValueDisabled}, toggleLabels),
		def(CategoryFeatures, NameAnonymousVoting, ValueDisabled, "Anonymous Voting", "allow votes without an identity",
			[]string{ValueEnabled, ValueDisabled}, toggleLabels),

		def(CategorySystem, NameAutoExecuteDelay, ValueImmediate, "Auto Execute Delay", "delay before a decided poll is applied",
			[]string{ValueImmediate, "1hour", "1day", ValueManual}, map[string]string{
				"Immediate": ValueImmediate, "1 Hour": "1hour", "1 Day": "1day", "Manual": ValueManual,
			}),
		def(CategorySystem, NameMaxPollsPerUser, "5", "Max Polls Per User", "maximum number of running polls a user may create",
			[]string{"3", "5", "10", ValueUnlimited}, map[string]string{
				"3 Polls": "3", "5 Polls": "5", "10 Polls": "10", "Unlimited": ValueUnlimited,
			}),
		def(CategorySystem, NameDefaultPollDuration, "7days", "Default Poll Duration", "default poll duration",
			[]string{"30seconds", "1day", "3days", "7days", "14days", "30days"}, map[string]string{
				"30 Seconds": "30seconds", "1 Day": "1day", "3 Days": "3days", "7 Days": "7days", "14 Days": "14days", "30 Days": "30days",
			}),

		def(CategoryAds, "positions", "sidebar", "Ad Positions", "where advertisements are placed",
			[]string{"sidebar", "banner", "footer", ValueDisabled}, nil),
		def(CategoryAds, "types", "image", "Ad Types", "which kind of advertisements is shown",
			[]string{"image", "text", "mixed", ValueDisabled}, nil),
		def(CategoryAds, "frequency", "moderate", "Ad Frequency", "how often advertisements are shown",
			[]string{"low", "moderate", "high", ValueDisabled}, nil),

		def(CategoryVotingSystem, NameWeightSystem, "equal", "Weight System", "how the influence of a voter is computed",
			[]string{"equal", "activity", "contribution", "reputation", "quadratic"}, nil),
		def(CategoryVotingSystem, NameConsensusAlgorithm, "majority", "Consensus Algorithm", "which threshold decides a poll",
			[]string{"majority", "supermajority", "consensus", "ranked", "quadratic"}, map[string]string{
				"Simple Majority": "majority", "Supermajority": "supermajority", "Consensus": "consensus", "Ranked Choice": "ranked", "Quadratic": "quadratic",
			}),

		def(CategoryUIDetails, "buttonStyle", "standard", "Button Style", "button style",
			[]string{"standard", "rounded", "pill", "flat", "3d"}, map[string]string{
				"Standard": "standard", "Rounded": "rounded", "Pill": "pill", "Flat": "flat", "3D": "3d",
			}),
		def(CategoryUIDetails, "fontFamily", "system", "Font Family", "font family",
			[]string{"system", "serif", "sans-serif", "monospace", "rounded"}, nil),
		def(CategoryUIDetails, "animationStyle", "standard", "Animation Style", "animation style",
			[]string{"standard", "smooth", "bounce", "none", "dramatic"}, nil),
		def(CategoryUIDetails, "cardStyle", "standard", "Card Style", "card style",
			[]string{"standard", "flat", "raised", "outlined", "minimal"}, nil),
		def(CategoryUIDetails, "colorContrast", "standard", "Color Contrast", "color contrast",
			[]string{"standard", "high", "very-high", "maximum"}, nil),

		def(CategoryContentDisplay, "informationDensity", "standard", "Information Density", "information density",
			[]string{"compact", "standard", "spacious", "very-spacious"}, nil),
		def(CategoryContentDisplay, "listSorting", "time-desc", "List Sorting", "list sorting",
			[]string{"time-desc", "time-asc", "votes-desc", "alphabetical"}, map[string]string{
				"Newest First": "time-desc", "Oldest First": "time-asc", "Most Votes": "votes-desc", "Alphabetical": "alphabetical",
			}),
		def(CategoryContentDisplay, "pollCardLayout", "standard", "Poll Card Layout", "poll card layout",
			[]string{"standard", "compact", "detailed", "minimal", "grid"}, nil),
		def(CategoryContentDisplay, "headingStyle", "standard", "Heading Style", "heading style",
			[]string{"standard", "bold", "underlined", "centered", "minimal"}, nil),

		def(CategoryPerformance, "preloadStrategy", "balanced", "Preload Strategy", "preload strategy",
			[]string{"aggressive", "balanced", "minimal", ValueDisabled}, nil),
		def(CategoryPerformance, "cacheStrategy", "standard", "Cache Strategy", "cache strategy",
			[]string{"minimal", "standard", "extensive", "aggressive"}, nil),
		def(CategoryPerformance, "imageQuality", "high", "Image Quality", "image quality",
			[]string{"low", "medium", "high", "auto"}, nil),
		def(CategoryPerformance, "animationReduction", "none", "Animation Reduction", "animation reduction",
			[]string{"none", "reduced", "minimal", ValueDisabled}, nil),

		def(CategoryAccessibility, "textSizeAdjustment", "0", "Text Size Adjustment", "text size adjustment in percent",
			[]string{"-10", "0", "10", "20", "30"}, map[string]string{
				"-10%": "-10", "Default": "0", "+10%": "10", "+20%": "20", "+30%": "30",
			}),
		def(CategoryAccessibility, "focusIndicator", "standard", "Focus Indicator", "focus indicator style",
			[]string{"subtle", "standard", "high-visibility", "custom"}, nil),
		def(CategoryAccessibility, "keyboardNavigation", "standard", "Keyboard Navigation", "keyboard navigation",
			[]string{"minimal", "standard", "enhanced", "comprehensive"}, nil),
		def(CategoryAccessibility, "colorMode", "standard", "Color Mode", "color vision mode",
			[]string{"standard", "deuteranopia", "protanopia", "tritanopia", "grayscale"}, nil),

		def(CategoryInteraction, "clickFeedback", "subtle", "Click Feedback", "click feedback",
			[]string{"none", "subtle", "standard", "pronounced"}, nil),
		def(CategoryInteraction, "scrollBehavior", "smooth", "Scroll Behavior", "scroll behavior",
			[]string{"instant", "smooth", "auto"}, nil),
		def(CategoryInteraction, "formValidation", "balanced", "Form Validation", "form validation strictness",
			[]string{"minimal", "balanced", "strict", "very-strict"}, nil),
		def(CategoryInteraction, "confirmDialogs", "important", "Confirm Dialogs", "when confirmation dialogs are shown",
			[]string{"none", "minimal", "important", "all"}, nil),
	}
}
