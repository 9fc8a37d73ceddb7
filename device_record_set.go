package cec

// deviceRecordSet is the in-progress inventory: one DeviceRecord per
// acknowledged logical address, in poll-ack order. Records are created only
// by newDeviceRecordSet at the Polling→PhysicalAddress transition and are
// never inserted or reordered afterwards; only remove, invoked solely on
// timeout exhaustion, shrinks it. Owned exclusively by one DiscoveryAction
// and touched only from its single dispatcher goroutine, so it carries no
// lock of its own.
type deviceRecordSet struct {
	records []*DeviceRecord
}

func newDeviceRecordSet(acked []LogicalAddress) *deviceRecordSet {
	records := make([]*DeviceRecord, 0, len(acked))
	for _, addr := range acked {
		records = append(records, newDeviceRecord(addr))
	}
	return &deviceRecordSet{records: records}
}

func (s *deviceRecordSet) len() int {
	return len(s.records)
}

func (s *deviceRecordSet) at(index int) *DeviceRecord {
	return s.records[index]
}

// remove drops the record at index, shifting every later record down by
// one. The caller (the timeout/retry path) does not advance its own index
// afterwards, so the same index now addresses what was the next record.
func (s *deviceRecordSet) remove(index int) {
	s.records = append(s.records[:index], s.records[index+1:]...)
}

func (s *deviceRecordSet) toDeviceInfoList() []DeviceInfo {
	out := make([]DeviceInfo, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.toDeviceInfo())
	}
	return out
}
