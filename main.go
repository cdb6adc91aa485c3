package main

import (
	"encoding/json"
	"diskdb/transaction"
	"diskdb/buffer"
)

type demostruct struct {
	Num int
	Val string
}

func main() {
	buff := buffer.NewBufferPool("sa", 32, nil)
	txn := transaction.TxnNoop()

	for i := 0; i < 50; i++ {
		x := demostruct{Num: i, Val: "selam"}
		encoded, _ := json.Marshal(x)
		var data [4096]byte
		copy(data[:], encoded)

		p, err := buff.NewPage(txn)
		if err != nil {
			println(err.Error())
			continue
		}
		println(p.GetPageId())

		data[4095] = byte('\n')
		p.Data = data[:]

		buff.Unpin(p.GetPageId(), true)
	}

	buff.FlushAll()
}
