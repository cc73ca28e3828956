package enums

// BotPersonality is a bot company's fixed strategy profile.
type BotPersonality string

const (
	PersonalityAggressive BotPersonality = "aggressive"
	PersonalityPremium    BotPersonality = "premium"
	PersonalityBalanced   BotPersonality = "balanced"
)

func (p BotPersonality) String() string {
	return string(p)
}

// PersonalityFor deterministically assigns a personality to a company.
func PersonalityFor(companyID int64) BotPersonality {
	switch companyID % 3 {
	case 0:
		return PersonalityAggressive
	case 1:
		return PersonalityPremium
	default:
		return PersonalityBalanced
	}
}
