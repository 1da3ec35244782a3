package utils

// KarmaLevel 根据 karma 返回用户等级名称
func KarmaLevel(karma int) string {
	switch {
	case karma >= 1000:
		return "legend"
	case karma >= 201:
		return "veteran"
	case karma >= 51:
		return "regular"
	case karma >= 11:
		return "member"
	default:
		return "newcomer"
	}
}
