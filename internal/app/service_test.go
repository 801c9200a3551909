package service_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/telescopium/polaralign/internal/adapters/repository"
	service "github.com/telescopium/polaralign/internal/app"
	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/site"
	"github.com/telescopium/polaralign/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

func newStartedService(ctx context.Context, opts ...service.Option) *service.Service {
	_ = logger.Init()
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc
}

func TestAlignmentPipeline(t *testing.T) {
	Convey("Given a started alignment service", t, func() {
		ctx := context.Background()
		svc := newStartedService(ctx)

		Convey("When running the full two-star calibration", func() {
			st, err := site.FromDMS("-71:14:12.5", "42:40", 110)
			So(err, ShouldBeNil)
			sess, err := svc.CreateSession(ctx, &st)
			So(err, ShouldBeNil)

			_, err = svc.RecordFirstStar(ctx, sess.ID, coords.Equatorial{
				RA:  angle.FromHour(3),
				Dec: angle.FromDeg(48),
			})
			So(err, ShouldBeNil)

			solved, err := svc.RecordSecondStar(ctx, sess.ID,
				coords.Equatorial{RA: angle.FromHour(23), Dec: angle.FromDeg(45)},
				angle.FromArcmin(-12), angle.FromArcmin(-21))

			Convey("Then the session carries the solved offset", func() {
				So(err, ShouldBeNil)
				So(solved.Aligned(), ShouldBeTrue)
				So(solved.Offset.DeltaAlt.Arcmin(), ShouldAlmostEqual, 7.3897, 1e-4)
				So(solved.Offset.DeltaAz.Arcmin(), ShouldAlmostEqual, 32.2597, 1e-4)

				off, err := svc.Offset(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(off.DeltaAlt.Arcmin(), ShouldAlmostEqual, 7.3897, 1e-4)
			})

			Convey("And a target transforms into the offset frame", func() {
				So(err, ShouldBeNil)
				t0 := time.Date(2020, 4, 15, 20, 49, 48, 560642000, time.UTC)
				target := coords.Horizontal{
					Alt:  angle.FromDeg(70.40996928460122),
					Az:   angle.FromDeg(51.17017631856635),
					Time: t0,
					Site: st,
				}
				got, err := svc.Transform(ctx, sess.ID, target)
				So(err, ShouldBeNil)
				// The reference rotation was generated from the offset
				// rounded to four arcminute decimals; the solved offset is
				// full precision, so allow for that rounding.
				So(got.Az.Deg(), ShouldAlmostEqual, 50.36605878470352, 1e-5)
				So(got.Alt.Deg(), ShouldAlmostEqual, 70.33162741801904, 1e-5)
			})
		})

		Convey("When the second star repeats the first star's hour angle", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)
			_, err = svc.RecordFirstStar(ctx, sess.ID, coords.Equatorial{
				RA:  angle.FromHour(3),
				Dec: angle.FromDeg(48),
			})
			So(err, ShouldBeNil)

			_, err = svc.RecordSecondStar(ctx, sess.ID,
				coords.Equatorial{RA: angle.FromHour(3), Dec: angle.FromDeg(45)},
				angle.FromArcmin(-12), angle.FromArcmin(-21))

			Convey("Then the solve fails with ErrSingular and no offset lands", func() {
				So(err, ShouldWrap, alignment.ErrSingular)
				_, err := svc.Offset(ctx, sess.ID)
				So(err, ShouldWrap, service.ErrNotAligned)
			})
		})

		Convey("When the second star arrives before the first", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)

			_, err = svc.RecordSecondStar(ctx, sess.ID,
				coords.Equatorial{RA: angle.FromHour(23), Dec: angle.FromDeg(45)},
				angle.FromArcmin(-12), angle.FromArcmin(-21))

			So(err, ShouldWrap, service.ErrCalibrationIncomplete)
		})

		Convey("When changing the site mid-calibration", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)
			_, err = svc.RecordFirstStar(ctx, sess.ID, coords.Equatorial{
				RA:  angle.FromHour(3),
				Dec: angle.FromDeg(48),
			})
			So(err, ShouldBeNil)

			updated, err := svc.SetSite(ctx, sess.ID, site.LaSerena())

			Convey("Then the calibration state is discarded", func() {
				So(err, ShouldBeNil)
				So(updated.FirstStar, ShouldBeNil)
				So(updated.Aligned(), ShouldBeFalse)
			})
		})

		Convey("When asking for the mount pointing", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)
			t0 := time.Date(2020, 4, 15, 20, 49, 48, 560642000, time.UTC)

			eq, err := svc.Pointing(ctx, sess.ID, t0)

			Convey("Then it reports the zenith at the session site", func() {
				So(err, ShouldBeNil)
				So(eq.RA.Deg(), ShouldAlmostEqual, 85.68579143410962, 1e-8)
				So(eq.Dec.Deg(), ShouldAlmostEqual, sess.Site.Latitude.Deg(), 1e-12)
			})
		})

		Convey("When transforming a catalog coordinate", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)
			_, err = svc.RecordFirstStar(ctx, sess.ID, coords.Equatorial{
				RA:  angle.FromHour(3),
				Dec: angle.FromDeg(48),
			})
			So(err, ShouldBeNil)
			_, err = svc.RecordSecondStar(ctx, sess.ID,
				coords.Equatorial{RA: angle.FromHour(23), Dec: angle.FromDeg(45)},
				angle.FromArcmin(-12), angle.FromArcmin(-21))
			So(err, ShouldBeNil)

			t0 := time.Date(2020, 4, 15, 20, 49, 48, 560642000, time.UTC)
			sirius := coords.Equatorial{
				RA:  angle.FromDeg(101.28715533),
				Dec: angle.FromDeg(-16.71611586),
			}
			got, err := svc.TransformEquatorial(ctx, sess.ID, sirius, t0)

			Convey("Then the converted target lands near the rotated apparent place", func() {
				So(err, ShouldBeNil)
				// Mean-place conversion, so compare loosely against the
				// fully reduced reference rotation.
				So(got.Alt.Deg()-70.33162741801904, ShouldBeBetween, -0.75, 0.75)
				So(got.Az.Deg()-50.36605878470352, ShouldBeBetween, -0.75, 0.75)
			})
		})

		Convey("When operating on an unknown session", func() {
			_, err := svc.Offset(ctx, "unknown")
			So(err, ShouldWrap, repository.ErrNotFound)

			_, err = svc.Session(ctx, "unknown")
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("When deleting a session", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)
			So(svc.DeleteSession(ctx, sess.ID), ShouldBeNil)

			_, err = svc.Session(ctx, sess.ID)
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("When reading stats", func() {
			sess, err := svc.CreateSession(ctx, nil)
			So(err, ShouldBeNil)

			stats := svc.GetStats()

			So(stats.Started, ShouldBeTrue)
			So(stats.Sessions, ShouldEqual, 1)
			So(stats.DefaultSite, ShouldEqual, sess.Site.String())
		})
	})
}
