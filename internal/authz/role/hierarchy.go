package role

// AtLeast reports whether actorLevel is at least as privileged as
// requiredLevel. Levels are inverted ranks: lower numbers outrank
// higher ones, so the owner role (level 0) satisfies every threshold.
func AtLeast(actorLevel, requiredLevel int) bool {
	return actorLevel <= requiredLevel
}
