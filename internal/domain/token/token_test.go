package token_test

import (
	"strings"
	"testing"

	"github.com/haeun-oh/rushgate/internal/domain/token"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	Convey("Given a token generator", t, func() {
		Convey("With default configuration", func() {
			g := token.NewGenerator()

			Convey("It produces single characters from the default alphabet", func() {
				for i := 0; i < 50; i++ {
					tok, err := g.Generate()
					So(err, ShouldBeNil)
					So(len(tok), ShouldEqual, token.DefaultLength)
					So(strings.ContainsAny(token.DefaultAlphabet, tok), ShouldBeTrue)
				}
			})
		})

		Convey("With a custom alphabet and length", func() {
			g := token.NewGenerator(
				token.WithAlphabet("abcdef"),
				token.WithLength(6),
			)

			Convey("Every character comes from the alphabet", func() {
				tok, err := g.Generate()
				So(err, ShouldBeNil)
				So(len(tok), ShouldEqual, 6)
				for _, c := range tok {
					So(strings.ContainsRune("abcdef", c), ShouldBeTrue)
				}
			})
		})

		Convey("With invalid options", func() {
			g := token.NewGenerator(
				token.WithAlphabet(""),
				token.WithLength(0),
			)

			Convey("Defaults are kept", func() {
				tok, err := g.Generate()
				So(err, ShouldBeNil)
				So(len(tok), ShouldEqual, token.DefaultLength)
			})
		})
	})
}
