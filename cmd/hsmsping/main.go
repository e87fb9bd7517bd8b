// Command hsmsping is a tiny exerciser for pkg/ssgem, grounded on
// original_source/example/src/main.rs's test_host/test_equipment: one
// side listens (Passive/equipment), the other dials (Active/host); once
// connected and selected, the host runs the S1F13/S1F14 Establish
// Communications handshake, then both sides run -linktests linktests,
// one per second, and disconnect.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wolimst/lib-secs2-hsms-go/pkg/session"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/ssgem"
	"github.com/wolimst/lib-secs2-hsms-go/pkg/typed"
)

func main() {
	mode := flag.String("mode", "equipment", "equipment (Passive) or host (Active)")
	endpoint := flag.String("endpoint", "127.0.0.1:5000", "TCP address to listen on or dial")
	linktests := flag.Int("linktests", 5, "number of linktests to run before disconnecting")
	flag.Parse()

	log := logrus.WithField("mode", *mode)

	var connectMode session.ConnectMode
	switch *mode {
	case "host":
		connectMode = session.Active
	case "equipment":
		connectMode = session.Passive
	default:
		log.Fatalf("unknown -mode %q, want \"host\" or \"equipment\"", *mode)
	}

	client := ssgem.New(session.NewSettings(session.WithConnectMode(connectMode)))
	_, recv, err := client.Connect(*endpoint)
	if err != nil {
		log.WithError(err).Fatal("connect failed")
	}
	defer client.Disconnect()
	log.Info("connected and selected")

	go serveDictionary(log, client, recv)

	if connectMode == session.Active {
		if err := establishCommunications(client); err != nil {
			log.WithError(err).Fatal("establish communications failed")
		}
	}

	for i := 0; i < *linktests; i++ {
		if err := client.Linktest(); err != nil {
			log.WithError(err).Error("linktest failed")
			os.Exit(1)
		}
		log.WithField("n", i).Info("linktest ok")
		time.Sleep(time.Second)
	}
}

// establishCommunications runs the S1F13/S1F14 handshake from the host
// side, per original_source/example/src/main.rs's test_host.
func establishCommunications(client *ssgem.Client) error {
	req := typed.S1F13{Info: typed.None[typed.Tuple2[typed.ModelName, typed.SoftwareRevision]]()}
	reply, err := client.Data(req.ToGeneric())
	if err != nil {
		return err
	}
	ack, err := typed.S1F14FromGeneric(*reply)
	if err != nil {
		return err
	}
	logrus.WithField("ack", ack.Ack).Info("establish communications acknowledged")
	return nil
}

// serveDictionary answers inbound primaries for the two dictionary
// messages this binary knows about, mirroring test_equipment's S1F13
// handler; anything else is dropped, matching the original's fallthrough
// break.
func serveDictionary(log *logrus.Entry, client *ssgem.Client, recv <-chan session.Primary) {
	for p := range recv {
		msg := p.Message
		if msg.Stream == 1 && msg.Function == 13 {
			info := typed.Some(typed.Tuple2[typed.ModelName, typed.SoftwareRevision]{
				First:  "hsmsping",
				Second: "v1",
			})
			reply := typed.S1F14{Ack: typed.CommAckAccepted, Info: info}
			if err := client.Reply(p.ID, reply.ToGeneric()); err != nil {
				log.WithError(err).Warn("reply failed")
			}
			continue
		}
		log.WithFields(logrus.Fields{"stream": msg.Stream, "function": msg.Function}).Debug("unhandled primary")
	}
}
