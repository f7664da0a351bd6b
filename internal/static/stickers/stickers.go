package stickers

import "math/rand"

// Telegram sticker file ids sent alongside notifications. Curated by the
// group admins, so the lists live in code rather than config.
var OK = []string{
	"CAACAgUAAxkBAAEJajlisHTO24Hg08vl_4yyrtoqifSYTgACGQcAArcy0VcwPcCmXDt1AygE",
	"CAACAgUAAxkBAAEDHhRhc9y5cZOQxLJbzwz1vkhEJrKnlwACrQMAAnEq0VfAJa5BqT-u4iME",
	"CAACAgUAAxkBAAEDHhZhc9zHXW0F1uqTdBUnmbyPyG6RxAACBQQAAnEq0VfLYkKS2o7rEyME",
}

var Failed = []string{
	"CAACAgUAAxkBAAEDHhhhc9zcMv1JbIUoNZFJrWWyHCtMywACsgMAAnEq0Vf7YGTyQ6kyUSME",
	"CAACAgUAAxkBAAEDHhphc9zl6R1I0Qk8BGvxBMJ1Y4beBAACtQMAAnEq0VcQ57x3qj1-3iME",
}

var UpcomingContest = []string{
	"CAACAgUAAxkBAAEDHhxhc9z04y6htRkXqQeRz0T1zVVAkQACvAMAAnEq0VcIgql1S9BiRSME",
	"CAACAgUAAxkBAAEDHh5hc9z9uG9gqORGJ1P1KkJrN7rnuwACwQMAAnEq0Vd-Wm1REDHIGCME",
}

func pick(list []string) string {
	return list[rand.Intn(len(list))]
}

func RandomOK() string              { return pick(OK) }
func RandomFailed() string          { return pick(Failed) }
func RandomUpcomingContest() string { return pick(UpcomingContest) }
